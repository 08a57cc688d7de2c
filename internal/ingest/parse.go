// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/churnwatch/churnwatch/internal/models"
)

// headerAliases maps legacy upload column names onto the canonical schema.
// Matching is case-insensitive after trimming.
var headerAliases = map[string]string{
	"average screen time":        models.FeatureAvgScreenTime,
	"average spent on app (inr)": models.FeatureAvgSpend,
	"ratings":                    models.FeatureRating,
	"new password request":       models.FeatureNewPasswordRequests,
	"last visited minutes":       models.FeatureLastVisitedMinutes,
	"churn":                      "is_churned",
}

// requiredColumns must all be present in a CSV header.
var requiredColumns = []string{
	models.FeatureAvgScreenTime,
	models.FeatureAvgSpend,
	models.FeatureRating,
	models.FeatureNewPasswordRequests,
	models.FeatureLastVisitedMinutes,
}

// ParseCSV parses a batch upload body. The first line is a header; column
// order is free, unknown columns (including user_id) are ignored, and
// day_1..day_30 columns are optional. A malformed cell marks its row for
// rejection without failing the parse; a malformed header fails the whole
// body.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[canonicalColumn(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing required column %q", name)
		}
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, parseCSVRow(fields, cols))
	}
	return rows, nil
}

func parseCSVRow(fields []string, cols map[string]int) Row {
	var row Row
	p := &fieldParser{fields: fields, cols: cols}

	row.AvgScreenTime = p.float(models.FeatureAvgScreenTime)
	row.AvgSpend = p.float(models.FeatureAvgSpend)
	row.Rating = p.float(models.FeatureRating)
	row.NewPasswordRequests = p.float(models.FeatureNewPasswordRequests)
	row.LastVisitedMinutes = p.float(models.FeatureLastVisitedMinutes)

	for i := 0; i < models.DayWindow; i++ {
		idx, ok := cols[models.DayFeature(i)]
		if !ok {
			break
		}
		row.DayUsage = append(row.DayUsage, p.floatAt(models.DayFeature(i), idx))
	}

	if idx, ok := cols["review"]; ok && idx < len(fields) {
		if text := strings.TrimSpace(fields[idx]); text != "" {
			row.Review = &text
		}
	}
	if idx, ok := cols["is_churned"]; ok && idx < len(fields) {
		row.Churned = p.boolAt("is_churned", idx)
	}

	row.err = p.err
	return row
}

// fieldParser accumulates the first cell-level error for a row.
type fieldParser struct {
	fields []string
	cols   map[string]int
	err    error
}

func (p *fieldParser) float(name string) float64 {
	idx, ok := p.cols[name]
	if !ok {
		return 0
	}
	return p.floatAt(name, idx)
}

func (p *fieldParser) floatAt(name string, idx int) float64 {
	if idx >= len(p.fields) {
		p.setErr(fmt.Errorf("missing value for column %q", name))
		return 0
	}
	raw := strings.TrimSpace(p.fields[idx])
	if raw == "" {
		p.setErr(fmt.Errorf("empty value for column %q", name))
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.setErr(fmt.Errorf("invalid number %q for column %q", raw, name))
		return 0
	}
	return v
}

func (p *fieldParser) boolAt(name string, idx int) *bool {
	raw := strings.TrimSpace(p.fields[idx])
	if raw == "" {
		return nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		v := true
		return &v
	case "0", "false", "no":
		v := false
		return &v
	default:
		p.setErr(fmt.Errorf("invalid boolean %q for column %q", raw, name))
		return nil
	}
}

func (p *fieldParser) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

func canonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := headerAliases[key]; ok {
		return canonical
	}
	return key
}

// jsonRow is the wire shape of a JSON submission. Required numerics are
// pointers so absent fields are distinguishable from zero.
type jsonRow struct {
	AvgScreenTime       *float64  `json:"avg_screen_time"`
	AvgSpend            *float64  `json:"avg_spend"`
	Rating              *float64  `json:"rating"`
	NewPasswordRequests *float64  `json:"new_password_requests"`
	LastVisitedMinutes  *float64  `json:"last_visited_minutes"`
	DayUsage            []float64 `json:"day_usage"`
	Review              *string   `json:"review"`
	Churned             *bool     `json:"is_churned"`
}

// ParseJSON parses a single record object or an array of record objects.
func ParseJSON(body []byte) ([]Row, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("empty request body")
	}

	var raws []jsonRow
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
	} else {
		var single jsonRow
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("failed to parse JSON record: %w", err)
		}
		raws = []jsonRow{single}
	}

	rows := make([]Row, len(raws))
	for i := range raws {
		rows[i] = jsonToRow(&raws[i])
	}
	return rows, nil
}

func jsonToRow(raw *jsonRow) Row {
	var row Row

	required := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{models.FeatureAvgScreenTime, raw.AvgScreenTime, &row.AvgScreenTime},
		{models.FeatureAvgSpend, raw.AvgSpend, &row.AvgSpend},
		{models.FeatureRating, raw.Rating, &row.Rating},
		{models.FeatureNewPasswordRequests, raw.NewPasswordRequests, &row.NewPasswordRequests},
		{models.FeatureLastVisitedMinutes, raw.LastVisitedMinutes, &row.LastVisitedMinutes},
	}
	for _, f := range required {
		if f.value == nil {
			row.err = fmt.Errorf("%s is required", f.name)
			return row
		}
		*f.dst = *f.value
	}

	row.DayUsage = raw.DayUsage
	row.Review = raw.Review
	row.Churned = raw.Churned
	return row
}
