package parse

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// htmlParser extracts conversations from platform HTML exports by walking
// the DOM with platform-specific selectors rather than regex headers. The
// output contract is the same ChatData as every other parser.
type htmlParser struct {
	platform detect.Platform
	match    func(n *html.Node) (model.MessageType, bool)
	model    string
}

func newHTMLParser(platform detect.Platform) *htmlParser {
	p := &htmlParser{platform: platform}
	switch platform {
	case detect.PlatformChatGPT:
		p.model = "ChatGPT"
		p.match = matchAuthorRoleAttr
	case detect.PlatformClaude:
		p.model = "Claude"
		p.match = matchClaudeClasses
	case detect.PlatformGemini:
		p.model = "Gemini"
		p.match = matchGeminiElements
	default:
		p.platform = detect.PlatformGeneric
		p.match = matchGenericClasses
	}
	return p
}

func (p *htmlParser) Platform() detect.Platform {
	return p.platform
}

func (p *htmlParser) Parse(raw string) (*model.ChatData, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var messages []model.ChatMessage
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if msgType, ok := p.match(n); ok {
				content := strings.TrimSpace(textContent(n))
				if content != "" {
					messages = append(messages, model.ChatMessage{
						Type:    msgType,
						Content: content,
					})
				}
				// matched containers are terminal; nested matches would
				// duplicate content
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(messages) == 0 {
		return nil, &NoTurnsError{Platform: p.platform}
	}

	for i := range messages {
		if messages[i].Type == model.MessageResponse {
			messages[i].Content = normalizeThoughts(messages[i].Content)
		}
	}

	meta := &model.ChatMetadata{
		Title:        documentTitle(doc),
		Model:        p.model,
		ExportStatus: model.StatusNotExported,
	}
	if meta.Model == "" {
		meta.Model = fallbackModel
	}
	for _, known := range knownModels {
		if strings.EqualFold(meta.Model, known) {
			meta.Tags = append(meta.Tags, strings.ToLower(known))
			break
		}
	}

	return &model.ChatData{Messages: messages, Metadata: meta}, nil
}

// matchAuthorRoleAttr keys on the data-message-author-role attribute used by
// ChatGPT's conversation DOM.
func matchAuthorRoleAttr(n *html.Node) (model.MessageType, bool) {
	switch attrVal(n, "data-message-author-role") {
	case "user":
		return model.MessagePrompt, true
	case "assistant":
		return model.MessageResponse, true
	default:
		return "", false
	}
}

// matchClaudeClasses keys on the turn classes in Claude's page markup.
func matchClaudeClasses(n *html.Node) (model.MessageType, bool) {
	switch {
	case hasClass(n, "font-user-message"):
		return model.MessagePrompt, true
	case hasClass(n, "font-claude-message"):
		return model.MessageResponse, true
	default:
		return "", false
	}
}

// matchGeminiElements keys on the custom elements Gemini renders turns with.
func matchGeminiElements(n *html.Node) (model.MessageType, bool) {
	switch n.Data {
	case "user-query":
		return model.MessagePrompt, true
	case "model-response":
		return model.MessageResponse, true
	default:
		return "", false
	}
}

// matchGenericClasses accepts the common "message user"/"message assistant"
// class convention, plus a data-role attribute.
func matchGenericClasses(n *html.Node) (model.MessageType, bool) {
	role := attrVal(n, "data-role")
	if role == "" && hasClass(n, "message") {
		switch {
		case hasClass(n, "user"), hasClass(n, "human"):
			role = "user"
		case hasClass(n, "assistant"), hasClass(n, "ai"), hasClass(n, "bot"):
			role = "assistant"
		}
	}
	switch role {
	case "user", "human":
		return model.MessagePrompt, true
	case "assistant", "ai", "bot":
		return model.MessageResponse, true
	default:
		return "", false
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func documentTitle(doc *html.Node) string {
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "title" || n.Data == "h1") {
			title = strings.TrimSpace(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// textContent flattens a node to text. Block elements break lines and
// <pre> content is preserved as a fenced code block.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
				return
			case "pre":
				b.WriteString("\n```\n")
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				b.WriteString("\n```\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteString("\n")
		}
	}
	walk(n)
	return collapseBlankLines(b.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "tr":
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.Join(out, "\n")
}
