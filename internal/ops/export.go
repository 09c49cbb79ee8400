package ops

import (
	"bytes"
	"database/sql"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/hpungsan/trak/internal/db"
	"github.com/hpungsan/trak/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID       string
	Filename string // optional; default "<name>-<id>.html"
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// markdown renders project notes. Unsafe raw HTML stays disabled; notes are
// untrusted input.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Export renders a project report (notes as markdown) to an HTML file under
// baseDir/exports.
func Export(database *sql.DB, baseDir string, input ExportInput) (*ExportOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}

	filename := input.Filename
	if filename == "" {
		filename = slugify(rec.Name) + "-" + rec.ID + ".html"
	}
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	var notesHTML bytes.Buffer
	if err := markdown.Convert([]byte(rec.Notes), &notesHTML); err != nil {
		return nil, errors.NewInternal(err)
	}

	doc := renderDocument(rec.Name, rec.Summary, rec.Status, notesHTML.String())

	path := filepath.Join(baseDir, "exports", filename)
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ExportOutput{
		ID:    rec.ID,
		Path:  path,
		Bytes: len(doc),
	}, nil
}

// validateFilename rejects path traversal and non-HTML extensions.
func validateFilename(name string) error {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return errors.NewInvalidRequest("filename must not contain path separators")
	}
	if name == "." || name == ".." {
		return errors.NewInvalidRequest("invalid filename")
	}
	if !strings.HasSuffix(name, ".html") {
		return errors.NewInvalidRequest("filename must end in .html")
	}
	return nil
}

// slugify lowercases and strips a name down to [a-z0-9-].
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "project"
	}
	return out
}

func renderDocument(name, summary, status, notesHTML string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(name))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(name))
	fmt.Fprintf(&b, "<p><strong>Status:</strong> %s</p>\n", html.EscapeString(status))
	if summary != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(summary))
	}
	b.WriteString(notesHTML)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
