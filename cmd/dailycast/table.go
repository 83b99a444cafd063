package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"DailyCast/internal/domain"
	"DailyCast/internal/usecase"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const titleWidth = 60

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderStories(stories []domain.Story) string {
	rows := make([][]string, 0, len(stories))
	for _, s := range stories {
		score := "-"
		if s.Score != nil {
			score = strconv.Itoa(*s.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Tier),
			s.Source,
			score,
			s.Published.Format("01-02 15:04"),
			text.Trim(s.Title, titleWidth),
		})
	}
	return renderTable(
		[]string{"Tier", "Source", "Score", "Published", "Title"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func renderReports(reports []domain.SourceReport) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Source,
			r.Status,
			strconv.Itoa(r.HTTPStatus),
			strconv.Itoa(r.BodyLength),
			strconv.Itoa(r.Before),
			strconv.Itoa(r.After),
			text.Trim(r.Error, titleWidth),
		})
	}
	return renderTable(
		[]string{"Source", "Status", "HTTP", "Bytes", "Before", "After", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderBreaker(report usecase.BreakerReport) string {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
		}
		rows = append(rows, []string{res.Entry.Name, string(report.Action), status})
	}
	return renderTable([]string{"Pipeline", "Action", "Result"}, rows, nil)
}
