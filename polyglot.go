// Package polyglot is a client for a text translation, speech synthesis and
// word analysis job service.
//
// Every operation follows the same lifecycle: the input text is sanitized and
// validated, the job is submitted and receives a request id, and the result
// endpoint is polled once per second, for at most 30 calls, until the job
// succeeds, fails or runs out of time. The outcome is rendered into a View.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/polyglot"
//	    "github.com/ZaguanLabs/polyglot/backend"
//	    "github.com/ZaguanLabs/polyglot/cache"
//	    "github.com/ZaguanLabs/polyglot/render"
//	)
//
//	func main() {
//	    // Connect to the service
//	    b, _ := backend.NewHTTPBackend(backend.HTTPConfig{
//	        BaseURL: "http://localhost:8080",
//	    })
//
//	    // Create client
//	    c := polyglot.NewClient(b,
//	        polyglot.WithView(myView),
//	        polyglot.WithRenderer(render.NewHTMLRenderer()),
//	        polyglot.WithCache(cache.NewInMemoryCache(cache.DefaultTTL)),
//	    )
//	    defer c.Close()
//
//	    ctx := context.Background()
//	    c.StartSession(ctx)
//
//	    // Translate and wait for the outcome
//	    job, _ := c.Translate(ctx, polyglot.TranslateInput{
//	        Text:            "Hello",
//	        SourceLanguage:  "en",
//	        TargetLanguages: []string{"ru", "uk"},
//	    })
//	    out, _ := job.Wait(ctx)
//	    fmt.Println(out.State)
//	}
//
// A Client keeps at most one job of each kind in flight. Starting a new
// translation cancels the previous one; translations, speech and analysis
// poll independently of each other.
package polyglot
