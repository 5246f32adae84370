package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/olehluchkiv/functrait/internal/expand"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>functrait: Closure Adapter Playground</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      flex-direction: column;
      align-items: center;
      min-height: 100vh;
      padding: 1rem;
      transition: background-color 0.3s, color 0.3s;
    }

    /* Light mode (default) */
    body {
      background-color: #f8f9fa;
      color: #212529;
    }

    /* Dark mode */
    @media (prefers-color-scheme: dark) {
      body {
        background-color: #1a1a2e;
        color: #e0e0e0;
      }
      .controls button, textarea, pre.output {
        background-color: #2d2d44;
        color: #e0e0e0;
        border-color: #444;
      }
      .controls button:hover {
        background-color: #3d3d5c;
      }
    }

    h1 {
      margin: 1rem 0;
      font-size: 1.4rem;
      font-weight: 600;
    }

    .controls {
      display: flex;
      gap: 0.5rem;
      margin-bottom: 1rem;
      flex-wrap: wrap;
      justify-content: center;
    }

    .controls button {
      padding: 0.4rem 0.9rem;
      font-size: 0.9rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      color: #212529;
      cursor: pointer;
      transition: background-color 0.15s;
    }

    .controls button:hover {
      background-color: #e9ecef;
    }

    .panes {
      display: flex;
      gap: 1rem;
      width: 100%;
      flex: 1;
    }

    textarea, pre.output {
      flex: 1;
      min-height: 60vh;
      padding: 0.75rem;
      font-family: "SFMono-Regular", Menlo, Consolas, monospace;
      font-size: 0.85rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      overflow: auto;
      white-space: pre;
    }

    ul.reports {
      width: 100%;
      margin-top: 1rem;
      list-style: none;
      font-size: 0.9rem;
    }

    ul.reports li.ok::before { content: "\2713  "; color: #4a9c6d; }
    ul.reports li.failed::before { content: "\2717  "; color: #c0392b; }
  </style>
</head>
<body>
  <h1>functrait: Closure Adapter Playground</h1>

  <div class="controls">
    <button id="expand" title="Expand">Expand</button>
    <button id="copy-out" title="Copy Output">Copy Output</button>
  </div>

  <div class="panes">
    <textarea id="source" spellcheck="false">{{.Example}}</textarea>
    <pre class="output" id="output"></pre>
  </div>
  <ul class="reports" id="reports"></ul>

  <script>
    (function() {
      var source = document.getElementById('source');
      var output = document.getElementById('output');
      var reports = document.getElementById('reports');

      function render(data) {
        output.textContent = data.output || '';
        reports.innerHTML = '';
        (data.reports || []).forEach(function(r) {
          var li = document.createElement('li');
          li.className = r.error ? 'failed' : 'ok';
          li.textContent = r.trait + ' (line ' + r.line + ')' + (r.error ? ': ' + r.error : '');
          reports.appendChild(li);
        });
      }

      document.getElementById('expand').addEventListener('click', function() {
        fetch('/api/expand', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ source: source.value })
        }).then(function(resp) {
          return resp.json();
        }).then(function(data) {
          if (data.error) {
            output.textContent = 'error: ' + data.error;
            reports.innerHTML = '';
            return;
          }
          render(data);
        });
      });

      document.getElementById('copy-out').addEventListener('click', function() {
        navigator.clipboard.writeText(output.textContent).then(function() {
          var btn = document.getElementById('copy-out');
          var orig = btn.textContent;
          btn.textContent = 'Copied!';
          setTimeout(function() { btn.textContent = orig; }, 1500);
        });
      });
    })();
  </script>
</body>
</html>
`

// example is loaded into the editor on first visit.
const example = `use std::future::Future;

#[functional_trait]
pub trait Handler {
    fn handle(&self, request: &str) -> String;
}

#[functional_trait]
pub trait Fetch<'a> {
    type Output: Future<Output = &'a str>;

    fn fetch(&mut self, key: &'a str) -> Self::Output;
}
`

// Expander is the part of expand.Expander the playground needs.
type Expander interface {
	Expand(ctx context.Context, name string, src []byte) (*expand.Result, error)
}

// Handler builds the playground's routes.
func Handler(exp Expander, logger *slog.Logger) (http.Handler, error) {
	tmpl, err := template.New("playground").Parse(htmlTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML template")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, struct{ Example string }{example}); err != nil {
			logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})

	mux.Handle("/api/expand", &expandHandler{
		exp:     exp,
		limiter: rate.NewLimiter(expandRate, expandBurst),
		logger:  logger,
	})

	return mux, nil
}

// Serve starts the playground on port. It blocks until the context is
// cancelled or the server fails.
func Serve(ctx context.Context, exp Expander, port int, openBrowser bool, logger *slog.Logger) error {
	logger = logger.With("component", "server")

	handler, err := Handler(exp, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", port)
	logger.Info("starting HTTP server", "addr", url)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "HTTP server error")
		}
		close(errCh)
	}()

	if openBrowser {
		openInBrowser(url, logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "HTTP server shutdown error")
		}
		return nil
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
