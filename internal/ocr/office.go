package ocr

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/billpipe/constants"
)

// extractSpreadsheet reads xlsx/csv files structurally. No quality gate:
// structural extraction is either complete or it errors.
func (e *Extractor) extractSpreadsheet(_ context.Context, path, ext string) (Result, error) {
	var (
		text string
		err  error
	)
	method := ext
	switch ext {
	case "csv":
		text, err = readCSV(path)
	default:
		method = "xlsx"
		text, err = readXLSX(path)
	}
	if err != nil {
		return Result{SourceType: constants.SPREADSHEET}, err
	}

	text = Normalize(text)
	return Result{
		Text:       text,
		Pages:      1,
		SourceType: constants.SPREADSHEET,
		Method:     method,
		Quality:    QualityScore(text),
	}, nil
}

func readXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func readCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var b strings.Builder
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		b.WriteString(strings.Join(rec, "\t"))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// extractDocx pulls paragraph text out of the main document part.
// A .docx is a zip archive; word/document.xml holds the body.
func (e *Extractor) extractDocx(_ context.Context, path string) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{SourceType: constants.DOC}, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return Result{SourceType: constants.DOC}, fmt.Errorf("docx has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return Result{SourceType: constants.DOC}, err
	}
	defer rc.Close()

	text, err := docxBodyText(rc)
	if err != nil {
		return Result{SourceType: constants.DOC}, err
	}

	text = Normalize(text)
	return Result{
		Text:       text,
		Pages:      1,
		SourceType: constants.DOC,
		Method:     "docx",
		Quality:    QualityScore(text),
	}, nil
}

// docxBodyText streams the XML and joins <w:t> runs; paragraph ends become newlines.
func docxBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
