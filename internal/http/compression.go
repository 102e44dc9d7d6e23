package httpx

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // gzip level (1-9); 0 means gzip.DefaultCompression
	MinSize int // responses shorter than this are sent uncompressed
	Logger  *slog.Logger
}

// Compression returns a middleware that gzips JSON and text responses for clients that
// accept it. Responses are buffered up to MinSize before the encoding is decided.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	level := cfg.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		level = gzip.DefaultCompression
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pool := &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, level)
		return w
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")

			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: cfg.MinSize}
			next.ServeHTTP(gzw, r)
			if err := gzw.finish(); err != nil {
				logger.ErrorContext(r.Context(), "finishing compressed response failed", "error", err)
			}
		})
	}
}

// acceptsGzip checks if the client accepts gzip encoding, respecting an explicit q=0.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		part = strings.TrimSpace(part)
		encoding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

func isCompressibleContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" ||
		strings.HasSuffix(mediaType, "+json") ||
		strings.HasPrefix(mediaType, "text/")
}

// gzipResponseWriter defers WriteHeader until it knows whether to compress.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	minSize int

	status      int
	wroteHeader bool // WriteHeader was called by the handler
	committed   bool // headers were sent downstream
	buf         []byte
	gz          *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
	if !w.bodyAllowed() {
		w.commit(false)
	}
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.committed {
		if w.gz != nil {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)
	if len(w.buf) < w.minSize {
		return len(b), nil
	}
	if err := w.flushBuffer(w.shouldCompress()); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (w *gzipResponseWriter) bodyAllowed() bool {
	return w.status >= http.StatusOK && w.status != http.StatusNoContent && w.status != http.StatusNotModified
}

func (w *gzipResponseWriter) shouldCompress() bool {
	h := w.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	if h.Get("Content-Type") == "" && len(w.buf) > 0 {
		h.Set("Content-Type", http.DetectContentType(w.buf))
	}
	return isCompressibleContentType(h.Get("Content-Type"))
}

func (w *gzipResponseWriter) commit(compress bool) {
	if w.committed {
		return
	}
	w.committed = true
	if compress {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		gz, _ := w.pool.Get().(*gzip.Writer)
		gz.Reset(w.ResponseWriter)
		w.gz = gz
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) flushBuffer(compress bool) error {
	w.commit(compress)
	buf := w.buf
	w.buf = nil
	if len(buf) == 0 {
		return nil
	}
	var err error
	if w.gz != nil {
		_, err = w.gz.Write(buf)
	} else {
		_, err = w.ResponseWriter.Write(buf)
	}
	return err
}

// finish sends anything still buffered and returns the gzip writer to the pool.
func (w *gzipResponseWriter) finish() error {
	if !w.wroteHeader {
		return nil
	}
	var err error
	if !w.committed {
		// Bodies below the threshold go out uncompressed.
		err = w.flushBuffer(false)
	}
	if w.gz != nil {
		if closeErr := w.gz.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		w.gz.Reset(io.Discard)
		w.pool.Put(w.gz)
		w.gz = nil
	}
	return err
}

// Flush implements http.Flusher.
func (w *gzipResponseWriter) Flush() {
	if w.wroteHeader && !w.committed {
		_ = w.flushBuffer(w.shouldCompress())
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
