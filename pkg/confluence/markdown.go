package confluence

import (
	md "github.com/JohannesKaufmann/html-to-markdown"
)

// newMarkdownConverter builds the converter used for page bodies. Confluence
// export-view HTML is rendered output, so the commonmark defaults cover it.
func newMarkdownConverter() *md.Converter {
	return md.NewConverter("", true, nil)
}

// htmlToMarkdown converts export-view HTML to Markdown. A body that fails to
// convert is returned unchanged rather than hiding the page.
func (c *Client) htmlToMarkdown(html string) string {
	out, err := c.markdown.ConvertString(html)
	if err != nil {
		return html
	}
	return out
}
