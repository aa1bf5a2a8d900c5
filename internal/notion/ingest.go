package notion

import (
	"context"
	"fmt"
	"sort"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

// IngestResult describes what an ingest operation did.
type IngestResult struct {
	PageID  string `json:"page_id"`
	Action  string `json:"action"` // "created" or "appended"
	Message string `json:"message"`
}

// Ingestor writes free-form content and tabular data into a Notion database,
// creating or extending pages keyed by title.
type Ingestor struct {
	svc        Service
	databaseID string
	log        zerolog.Logger
}

// NewIngestor creates an Ingestor over the given Notion service and target
// database.
func NewIngestor(svc Service, databaseID string, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		svc:        svc,
		databaseID: databaseID,
		log:        log,
	}
}

// FindPageByTitle returns the ID of the first page in the database whose title
// equals the given string, or "" when no page matches.
func (i *Ingestor) FindPageByTitle(ctx context.Context, title string) (string, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "title",
			RichText: &notionapi.TextFilterCondition{
				Equals: title,
			},
		},
	}

	resp, err := i.svc.QueryDatabase(ctx, i.databaseID, req)
	if err != nil {
		return "", fmt.Errorf("FindPageByTitle: %w", err)
	}

	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

// Ingest creates a page titled title with the content as its first paragraph,
// or appends the content to an existing page with that title.
func (i *Ingestor) Ingest(ctx context.Context, title, content string) (*IngestResult, error) {
	pageID, err := i.FindPageByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}

	if pageID != "" {
		i.log.Info().Str("page_id", pageID).Msg("Appending content to existing page")
		if _, err := i.svc.AppendBlocks(ctx, pageID, []notionapi.Block{ParagraphBlock(content)}); err != nil {
			return nil, fmt.Errorf("Ingest: %w", err)
		}
		return &IngestResult{
			PageID:  pageID,
			Action:  "appended",
			Message: "Content successfully appended to existing page",
		}, nil
	}

	i.log.Info().Str("title", title).Msg("Creating new page")
	page, err := i.svc.CreatePage(ctx, i.databaseID, TitleProperties(title), []notionapi.Block{ParagraphBlock(content)})
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	return &IngestResult{
		PageID:  string(page.ID),
		Action:  "created",
		Message: "New page successfully created",
	}, nil
}

// TableIngest appends one row of key/value data to the table inside the page
// titled pageTitle. A missing page or table is created first; the row keys
// become the header row, sorted for stable column order.
func (i *Ingestor) TableIngest(ctx context.Context, pageTitle string, data map[string]string) (*IngestResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("TableIngest: empty table data")
	}
	headers, values := tableCells(data)

	pageID, err := i.FindPageByTitle(ctx, pageTitle)
	if err != nil {
		return nil, fmt.Errorf("TableIngest: %w", err)
	}

	if pageID == "" {
		page, err := i.svc.CreatePage(ctx, i.databaseID, TitleProperties(pageTitle), []notionapi.Block{TableBlock(headers, values)})
		if err != nil {
			return nil, fmt.Errorf("TableIngest: creating page: %w", err)
		}
		return &IngestResult{
			PageID:  string(page.ID),
			Action:  "created",
			Message: fmt.Sprintf("Created page %q with table data", pageTitle),
		}, nil
	}

	tableID, err := i.findTableInPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("TableIngest: %w", err)
	}

	if tableID == "" {
		i.log.Info().Str("page_id", pageID).Msg("No table in page, creating one")
		if _, err := i.svc.AppendBlocks(ctx, pageID, []notionapi.Block{TableBlock(headers, values)}); err != nil {
			return nil, fmt.Errorf("TableIngest: creating table: %w", err)
		}
	} else {
		if _, err := i.svc.AppendBlocks(ctx, tableID, []notionapi.Block{TableRowBlock(values)}); err != nil {
			return nil, fmt.Errorf("TableIngest: appending row: %w", err)
		}
	}

	return &IngestResult{
		PageID:  pageID,
		Action:  "appended",
		Message: fmt.Sprintf("Appended table data to page %q", pageTitle),
	}, nil
}

// findTableInPage returns the ID of the first table block among the page's
// children, or "" when the page has none.
func (i *Ingestor) findTableInPage(ctx context.Context, pageID string) (string, error) {
	blocks, err := i.svc.ListBlockChildren(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("findTableInPage: %w", err)
	}

	for _, b := range blocks {
		if b.GetType() == notionapi.BlockTypeTableBlock {
			return string(b.GetID()), nil
		}
	}
	return "", nil
}

func tableCells(data map[string]string) (headers, values []string) {
	headers = make([]string, 0, len(data))
	for k := range data {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	values = make([]string, 0, len(headers))
	for _, h := range headers {
		values = append(values, data[h])
	}
	return headers, values
}

// TransactionWriter appends analysed transactions to the transactions
// database.
type TransactionWriter struct {
	svc        Service
	databaseID string
}

// NewTransactionWriter creates a writer targeting the given transactions
// database.
func NewTransactionWriter(svc Service, databaseID string) *TransactionWriter {
	return &TransactionWriter{svc: svc, databaseID: databaseID}
}

// Append creates one page per transaction in the transactions database.
func (w *TransactionWriter) Append(ctx context.Context, tx domain.Transaction) (string, error) {
	page, err := w.svc.CreatePage(ctx, w.databaseID, TransactionProperties(tx), nil)
	if err != nil {
		return "", fmt.Errorf("Append: %w", err)
	}
	return string(page.ID), nil
}
