package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iafilius/JobAnalytics/src/charts"
	"github.com/iafilius/JobAnalytics/src/types"
)

// WorkbookFilename is the fixed name of the workbook download.
const WorkbookFilename = "job-analytics.xlsx"

type sheetDef struct {
	name      string
	headers   []string
	rows      [][]interface{}
	chartType excelize.ChartType
}

// WriteWorkbook writes p as an xlsx workbook with one sheet (and one native
// chart) per dashboard chart, in export order.
func WriteWorkbook(w io.Writer, p types.Payload) error {
	defs := []sheetDef{
		{name: charts.SlotTopSkills.Title(), headers: []string{"Skill", "Jobs"}, rows: datasetRows(p.TopSkills), chartType: excelize.Col},
		{name: charts.SlotCity.Title(), headers: []string{"City", "Jobs"}, rows: datasetRows(p.JobsByCity), chartType: excelize.Doughnut},
		{name: charts.SlotTrend.Title(), headers: []string{"Week", "Jobs"}, rows: weekRows(p.JobsByWeek), chartType: excelize.Line},
		{name: charts.SlotSentiment.Title(), headers: []string{"City", "Polarity Score", "Sentiment"}, rows: sentimentRows(p.SentimentByCity), chartType: excelize.Col},
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range defs {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("new sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheetDef) error {
	for c, h := range s.headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", s.name, err)
		}
	}
	for r, row := range s.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.name, cell, v); err != nil {
				return fmt.Errorf("%s %s: %w", s.name, cell, err)
			}
		}
	}
	if len(s.rows) == 0 {
		return nil
	}
	last := len(s.rows) + 1
	ref := "'" + s.name + "'"
	return f.AddChart(s.name, "E2", &excelize.Chart{
		Type: s.chartType,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", ref),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", ref, last),
		}},
		Title: []excelize.RichTextRun{{Text: s.name}},
	})
}

func datasetRows(d types.ChartDataset) [][]interface{} {
	rows := make([][]interface{}, len(d))
	for i, p := range d {
		rows[i] = []interface{}{p.Label, p.Value}
	}
	return rows
}

func weekRows(s types.TimeSeries) [][]interface{} {
	rows := make([][]interface{}, len(s))
	for i, w := range s {
		rows[i] = []interface{}{w.Week, w.Count}
	}
	return rows
}

func sentimentRows(s types.SentimentSeries) [][]interface{} {
	rows := make([][]interface{}, len(s))
	for i, c := range s {
		rows[i] = []interface{}{c.City, c.Score, types.Classify(c.Score).String()}
	}
	return rows
}
