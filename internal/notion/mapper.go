package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// TitleProperties builds the minimal property set for a page keyed by title.
func TitleProperties(title string) notionapi.Properties {
	return notionapi.Properties{
		"title": notionapi.TitleProperty{
			Title: richText(title),
		},
	}
}

// ParagraphBlock wraps plain text in a paragraph block.
func ParagraphBlock(content string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: richText(content),
		},
	}
}

// TableRowBlock builds one table row with a cell per value.
func TableRowBlock(values []string) notionapi.Block {
	cells := make([][]notionapi.RichText, 0, len(values))
	for _, v := range values {
		cells = append(cells, richText(v))
	}
	return &notionapi.TableRowBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeTableRowBlock,
		},
		TableRow: notionapi.TableRow{
			Cells: cells,
		},
	}
}

// TableBlock builds a table with a header row followed by one data row.
func TableBlock(headers, row []string) notionapi.Block {
	return &notionapi.TableBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeTableBlock,
		},
		Table: notionapi.Table{
			TableWidth:      len(headers),
			HasColumnHeader: true,
			Children: notionapi.Blocks{
				TableRowBlock(headers),
				TableRowBlock(row),
			},
		},
	}
}

// TransactionProperties converts an analysed transaction to the property set
// of the transactions database.
func TransactionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Detail": notionapi.TitleProperty{
			Title: richText(tx.Detail),
		},
		"Amount INR": notionapi.NumberProperty{
			Number: tx.AmountINR,
		},
		"Amount USD": notionapi.NumberProperty{
			Number: tx.AmountUSD,
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Category),
			},
		},
	}

	if tx.AccountName != "" {
		props["Account"] = notionapi.RichTextProperty{
			RichText: richText(tx.AccountName),
		}
	}

	if parsed, err := time.Parse(domain.DateFormat, tx.Date); err == nil {
		d := notionapi.Date(parsed)
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &d,
			},
		}
	}

	return props
}
