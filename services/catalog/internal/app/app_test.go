package app

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"bookstore/pkg/mail"
	"bookstore/pkg/storage"
	"bookstore/pkg/store"
	"bookstore/pkg/token"
)

type testEnv struct {
	app     *App
	store   *store.MemoryStore
	mail    *mail.MemorySender
	objects *storage.MemoryStore
	tokens  *token.JWTCodec
}

func newTestEnv(t *testing.T, pageSize int) *testEnv {
	t.Helper()
	codec, err := token.NewJWTCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	env := &testEnv{
		store:   store.NewMemoryStore(),
		mail:    mail.NewMemorySender(),
		objects: storage.NewMemoryStore(),
		tokens:  codec,
	}
	env.app, err = New(Config{
		Store:    env.store,
		Objects:  env.objects,
		Mail:     env.mail,
		Tokens:   codec,
		PageSize: pageSize,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return env
}

func (e *testEnv) addBook(t *testing.T, name string, price float64, author, surname, category string) {
	t.Helper()
	err := e.app.AddBook(context.Background(), AddBookCommand{
		Name:          name,
		Price:         price,
		AuthorName:    author,
		AuthorSurname: surname,
		CategoryName:  category,
	})
	if err != nil {
		t.Fatalf("add book %q: %v", name, err)
	}
}

func (e *testEnv) registerUser(t *testing.T, username, email string) string {
	t.Helper()
	err := e.app.Register(context.Background(), RegisterCommand{
		Username: username,
		Email:    email,
		Password: "Str0ngPassword",
		BaseURL:  "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("register %q: %v", username, err)
	}
	u, ok, err := e.store.GetUserByUsername(context.Background(), username)
	if err != nil || !ok {
		t.Fatalf("registered user %q not found: %v", username, err)
	}
	return u.ID
}

func (e *testEnv) bookIDByName(t *testing.T, name string) string {
	t.Helper()
	book, ok := e.store.FindBookByName(name)
	if !ok {
		t.Fatalf("book %q not found", name)
	}
	return book.ID
}

// anchorHref parses an HTML email body and returns the first anchor's href.
func anchorHref(t *testing.T, body string) *url.URL {
	t.Helper()
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse email html: %v", err)
	}
	var href string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = attr.Val
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if href == "" {
		t.Fatalf("no anchor found in email body: %s", body)
	}
	parsed, err := url.Parse(href)
	if err != nil {
		t.Fatalf("parse href %q: %v", href, err)
	}
	return parsed
}
