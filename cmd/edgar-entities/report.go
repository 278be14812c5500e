package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ajitpratap0/edgar-entities/internal/indexer"
	"github.com/ajitpratap0/edgar-entities/internal/models"
)

// outcomeLabel renders a record's classification for listings.
func outcomeLabel(c *models.Classification) string {
	if c == nil {
		return "pending"
	}
	return c.Key()
}

// writeDescribe lists every record as "<outcome> <original name>".
func writeDescribe(w io.Writer, recs []models.Record) {
	for i := range recs {
		fmt.Fprintf(w, "%-14s %s\n", outcomeLabel(recs[i].Classification), recs[i].OriginalName)
	}
}

// writeSummary prints outcome counts with per-flag-set lines in name order.
func writeSummary(w io.Writer, stats *models.ClassificationStats) {
	fmt.Fprintf(w, "Persons:      %d\n", stats.Persons)
	fmt.Fprintf(w, "Companies:    %d\n", stats.Companies)
	fmt.Fprintf(w, "Unclassified: %d\n", stats.Unclassified)
	if stats.Pending > 0 {
		fmt.Fprintf(w, "Pending:      %d\n", stats.Pending)
	}
	if len(stats.ByFlags) > 0 {
		fmt.Fprintln(w, "Regime flags:")
		keys := make([]string, 0, len(stats.ByFlags))
		for k := range stats.ByFlags {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-24s %d\n", k, stats.ByFlags[k])
		}
	}
	fmt.Fprintf(w, "TOTAL:        %d\n", stats.Total)
}

// writeIndexReport prints what an ingestion batch read and skipped.
func writeIndexReport(w io.Writer, rep indexer.Report) {
	fmt.Fprintf(w, "Sources: %d  Lines: %d  Sightings: %d  Malformed: %d  Skipped sources: %d\n",
		rep.Sources, rep.Lines, rep.Sightings, rep.Malformed, len(rep.Skipped))
	for _, s := range rep.Skipped {
		fmt.Fprintf(w, "  skipped %s (%s)\n", s.Source, s.Reason)
	}
}

// writeRecord prints one record in detail.
func writeRecord(w io.Writer, rec *models.Record) {
	fmt.Fprintf(w, "CIK:            %s\n", rec.Identifier)
	fmt.Fprintf(w, "Name:           %s\n", rec.OriginalName)
	fmt.Fprintf(w, "Classification: %s\n", outcomeLabel(rec.Classification))
	if len(rec.NameVariants) > 0 {
		fmt.Fprintln(w, "Name variants:")
		for _, v := range rec.NameVariants {
			fmt.Fprintf(w, "  %s (%s filed %s)\n", v.Name, v.Filing.FormType, v.Filing.Filed)
		}
	}
	fmt.Fprintln(w, "Forms:")
	for _, f := range rec.Forms {
		fmt.Fprintf(w, "  %-10s %s  %s\n", f.FormType, f.Filed, f.Accession)
	}
}

var csvHeader = []string{"identifier", "original_name", "classification", "flags", "form_types", "name_variants", "first_seen_at"}

// writeCSV writes one row per record.
func writeCSV(w io.Writer, recs []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i := range recs {
		r := &recs[i]
		kind, flags := "pending", ""
		if r.Classification != nil {
			kind = string(r.Classification.Kind)
			flags = strings.Join(r.Classification.Flags, ";")
		}
		variants := make([]string, len(r.NameVariants))
		for j := range r.NameVariants {
			variants[j] = r.NameVariants[j].Name
		}
		row := []string{
			r.Identifier,
			r.OriginalName,
			kind,
			flags,
			strings.Join(r.FormTypes(), ";"),
			strings.Join(variants, ";"),
			r.FirstSeenAt.Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
