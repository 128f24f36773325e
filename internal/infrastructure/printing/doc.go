// Package printing turns orders into PDF files.
//
// TemplateEngine renders an order to HTML with the embedded pt-BR template.
// PDFRenderer converts that HTML to PDF; ChromedpRenderer drives a headless
// Chrome and WkhtmltopdfRenderer shells out to wkhtmltopdf. FileSystemStorage
// writes the result atomically under the storage root.
//
//	engine, err := NewTemplateEngine()
//	if err != nil {
//	    return err
//	}
//	html, err := engine.RenderOrder(ctx, o)
//	if err != nil {
//	    return err
//	}
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    HTML: html.HTML,
//	    Page: printing.DefaultPageSetup(),
//	})
package printing
