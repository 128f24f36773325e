// Package printing holds the page geometry used when converting an order
// document to PDF: paper size, orientation and margins.
package printing
