package fetch_test

import (
	"fmt"

	"github.com/f0zi/fetch"
	"github.com/f0zi/fetch/host/hosttest"
)

// ExampleHeader shows merging and ordered iteration.
func ExampleHeader() {
	h := &fetch.Header{}
	_ = h.Append("Accept", "text/html")
	_ = h.Append("ACCEPT", "application/json")
	_ = h.Set("Content-Type", "text/plain")
	v, _ := h.Get("accept")
	fmt.Println(v)
	h.ForEach(func(name, value string) { fmt.Println(name) })
	fmt.Println(h.Append("bad name", "x") != nil)
	// Output:
	// text/html, application/json
	// accept
	// content-type
	// true
}

// ExampleClient_Fetch drives a request through a scripted host.
func ExampleClient_Fetch() {
	h := hosttest.New()
	c := fetch.NewClient(h, fetch.Config{})
	f := c.Fetch("http://example.test/hello", &fetch.RequestInit{Method: "post", Body: "hi"})

	s := h.Sockets()[0]
	s.Connect()
	fmt.Printf("%q\n", s.Written())
	s.Receive("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhello back")

	resp, err := f.Wait()
	if err != nil {
		fmt.Println(err)
		return
	}
	text, _ := resp.Text()
	fmt.Println(resp.Status, resp.OK(), text)
	// Output:
	// "POST /hello HTTP/1.1\r\nHost: example.test\r\nContent-Length: 2\r\n\r\nhi"
	// 200 true hello back
}

// ExampleRedirect builds a redirect response.
func ExampleRedirect() {
	r, _ := fetch.Redirect("http://example.test/new", 307)
	loc, _ := r.Header.Get("Location")
	fmt.Println(r.Status, r.StatusText, loc)
	_, err := fetch.Redirect("http://example.test/new", 200)
	fmt.Println(err)
	// Output:
	// 307 Temporary Redirect http://example.test/new
	// fetch: invalid redirect status code: 200
}
