// Package extract pulls plain text out of PDF files, one entry per page.
package extract
