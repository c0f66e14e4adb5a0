package store

import (
	"encoding/csv"
	"io"
	"os"
)

var csvHeader = []string{"id", "title", "due", "status"}

// ExportCSV writes every task as CSV, header first, in insertion order.
func (w *Workspace) ExportCSV(out io.Writer) error {
	tasks, err := w.ListTasks()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := cw.Write([]string{t.ID, t.Title, t.Due, string(t.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSVFile exports to a file and returns the path written.
func (w *Workspace) ExportCSVFile(path string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := w.ExportCSV(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
