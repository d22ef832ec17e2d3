package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/motd-comb/app/motd"
)

type Generator struct {
	baseURL string
	version string
	now     func() time.Time
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: version,
		now:     time.Now,
	}
}

// Link returns the public page of a single MOTD.
func (g *Generator) Link(key int64) string {
	return fmt.Sprintf("%s/?id=%d", g.baseURL, key)
}

// Run renders motds, expected newest first, as an RSS 2.0 document.
func (g *Generator) Run(channel Channel, motds []motd.CleanedRecord) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(channel.Title, "SMITE Match of the Day"), 4)
	g.writeElement(&buf, "link", cmp.Or(channel.Link, g.baseURL), 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, "Every SMITE Match of the Day and its rules"), 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := g.now()
	if len(motds) > 0 {
		lastBuildDate = time.Unix(motds[0].StartTime, 0)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.UTC().Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("MOTD-Comb/%s", g.version), 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	for _, m := range motds {
		g.writeItem(&buf, m)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, m motd.CleanedRecord) {
	link := g.Link(m.StartTime)

	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", m.Name, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", cmp.Or(m.Description, "No description available"), 6)

	if len(m.Rules) > 0 {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(rulesHTML(m))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", time.Unix(m.StartTime, 0).UTC().Format(time.RFC1123Z), 6)
	g.writeElement(buf, "category", m.GameMode, 6)

	buf.WriteString("    </item>\n")
}

func rulesHTML(m motd.CleanedRecord) string {
	var sb strings.Builder
	if m.Description != "" {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(m.Description))
		sb.WriteString("</p>")
	}
	sb.WriteString("<ul>")
	for _, rule := range m.Rules {
		sb.WriteString("<li>")
		sb.WriteString(html.EscapeString(rule))
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
