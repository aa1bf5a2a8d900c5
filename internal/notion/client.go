package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// Service defines the Notion API surface used by the ingestion services.
// This interface enables mocking and testing of Notion operations.
type Service interface {
	// CreatePage creates a new page in a Notion database with the given
	// properties and optional child blocks.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// AppendBlocks appends child blocks to a page or block.
	AppendBlocks(ctx context.Context, blockID string, blocks []notionapi.Block) (*notionapi.AppendBlockChildrenResponse, error)

	// ListBlockChildren returns the direct children of a page or block.
	ListBlockChildren(ctx context.Context, blockID string) ([]notionapi.Block, error)
}

// Client is the concrete implementation of Service using the Notion SDK.
type Client struct {
	client *notionapi.Client
}

// NewClient creates a new Client with the provided API token.
func NewClient(token string) *Client {
	return &Client{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database.
func (n *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
		Children:   children,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// QueryDatabase queries a Notion database with the given filter.
func (n *Client) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}

	return resp, nil
}

// AppendBlocks appends child blocks to the given page or block.
func (n *Client) AppendBlocks(ctx context.Context, blockID string, blocks []notionapi.Block) (*notionapi.AppendBlockChildrenResponse, error) {
	resp, err := n.client.Block.AppendChildren(ctx, notionapi.BlockID(blockID), &notionapi.AppendBlockChildrenRequest{
		Children: blocks,
	})
	if err != nil {
		return nil, fmt.Errorf("AppendBlocks: %w", err)
	}

	return resp, nil
}

// ListBlockChildren returns all direct children of a page or block, paging
// through the API as needed.
func (n *Client) ListBlockChildren(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	var all []notionapi.Block
	var cursor notionapi.Cursor

	for {
		pagination := &notionapi.Pagination{PageSize: 100}
		if cursor != "" {
			pagination.StartCursor = cursor
		}

		resp, err := n.client.Block.GetChildren(ctx, notionapi.BlockID(blockID), pagination)
		if err != nil {
			return nil, fmt.Errorf("ListBlockChildren: %w", err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return all, nil
}
