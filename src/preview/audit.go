package preview

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrUnexpectedMarkup is returned by Audit for markup a fragment must not
// contain.
var ErrUnexpectedMarkup = errors.New("unexpected markup")

var allowedLinkClasses = map[string]struct{}{
	"badge " + ClassSafe.String():   {},
	"badge " + ClassWarn.String():   {},
	"badge " + ClassDanger.String(): {},
}

// Audit checks that a fragment contains nothing beyond text, classified
// link elements and risk markers. It tokenizes the fragment the way a
// browser would, so a failure means the fragment is unsafe to inject.
func Audit(fragment string) error {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return fmt.Errorf("tokenizing fragment: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			if err := auditElement(z.Token()); err != nil {
				return err
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag != "a" && tag != "mark" {
				return fmt.Errorf("%w: closing tag <%s>", ErrUnexpectedMarkup, tag)
			}

		case html.CommentToken, html.DoctypeToken:
			return fmt.Errorf("%w: %s token", ErrUnexpectedMarkup, tt)
		}
	}
}

func auditElement(tok html.Token) error {
	switch tok.Data {
	case "a":
		for _, attr := range tok.Attr {
			switch attr.Key {
			case "href":
				href := strings.ToLower(attr.Val)
				if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
					return fmt.Errorf("%w: link href %q", ErrUnexpectedMarkup, attr.Val)
				}
			case "class":
				if _, ok := allowedLinkClasses[attr.Val]; !ok {
					return fmt.Errorf("%w: link class %q", ErrUnexpectedMarkup, attr.Val)
				}
			case "target", "rel":
			default:
				return fmt.Errorf("%w: link attribute %q", ErrUnexpectedMarkup, attr.Key)
			}
		}
		return nil

	case "mark":
		for _, attr := range tok.Attr {
			if attr.Key != "class" || attr.Val != markClass {
				return fmt.Errorf("%w: marker attribute %s=%q", ErrUnexpectedMarkup, attr.Key, attr.Val)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: element <%s>", ErrUnexpectedMarkup, tok.Data)
	}
}
