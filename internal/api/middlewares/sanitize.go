package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/models"
	"interview-api/internal/sanitize"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// SanitizedBodyKey holds the sanitized JSON tree of the current request
const SanitizedBodyKey = "sanitized_body"

// multipartMemory matches gin's default in-memory limit for multipart forms
const multipartMemory = 32 << 20

// errUnsupportedMediaType rejects bodies whose strings cannot be rewritten
var errUnsupportedMediaType = errors.New("unsupported media type")

// Sanitize middleware rewrites every string the client sent, in the JSON,
// urlencoded or multipart body, the query string and the path parameters,
// before any handler can read it. A non-empty body of any other type is
// refused with 415.
func Sanitize(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := services.Sanitizer()

		if c.Request.URL.RawQuery != "" {
			c.Request.URL.RawQuery = s.Values(c.Request.URL.Query()).Encode()
		}
		for i, param := range c.Params {
			c.Params[i].Value = s.String(param.Value)
		}
		if polluted, ok := c.Get(PollutedQueryKey); ok {
			if lists, ok := polluted.(map[string][]string); ok {
				s.Values(url.Values(lists))
			}
		}

		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		var err error
		switch c.ContentType() {
		case binding.MIMEJSON:
			err = sanitizeJSONBody(c, s)
		case binding.MIMEPOSTForm:
			err = sanitizeFormBody(c, s)
		case binding.MIMEMultipartPOSTForm:
			err = sanitizeMultipartBody(c, s)
		default:
			err = requireEmptyBody(c)
		}

		if err != nil {
			rejectPayload(c, services, err)
			return
		}

		c.Next()
	}
}

func rejectPayload(c *gin.Context, services interfaces.Services, err error) {
	var (
		apiErr *models.APIError
		reason string
	)
	switch {
	case errors.Is(err, sanitize.ErrDepthExceeded):
		apiErr, reason = models.ErrPayloadTooDeep(), "depth"
	case errors.Is(err, errUnsupportedMediaType):
		apiErr, reason = models.ErrUnsupportedMediaType(c.ContentType()), "media_type"
	default:
		apiErr, reason = models.ErrInvalidRequest(err.Error()), "malformed"
	}

	if m := services.GetMetrics(); m != nil {
		m.SanitizeRejections.WithLabelValues(reason).Inc()
	}
	services.GetLogger().Warning("Rejected request payload",
		"path", c.Request.URL.Path,
		"content_type", c.ContentType(),
		"error", err.Error(),
	)
	models.Abort(c, apiErr)
}

func sanitizeJSONBody(c *gin.Context, s interfaces.SanitizerInterface) error {
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body.Close()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		replaceBody(c, raw)
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON value")
	}

	clean, err := s.Sanitize(tree)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(clean); err != nil {
		return err
	}

	c.Set(SanitizedBodyKey, clean)
	replaceBody(c, bytes.TrimRight(buf.Bytes(), "\n"))
	return nil
}

func sanitizeFormBody(c *gin.Context, s interfaces.SanitizerInterface) error {
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body.Close()
	if err != nil {
		return err
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return err
	}

	replaceBody(c, []byte(s.Values(values).Encode()))
	return nil
}

func replaceBody(c *gin.Context, body []byte) {
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Request.ContentLength = int64(len(body))
	c.Request.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

// sanitizeMultipartBody parses the form up front so the request carries only
// sanitized values; later ParseMultipartForm calls return the parsed form.
func sanitizeMultipartBody(c *gin.Context, s interfaces.SanitizerInterface) error {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return err
	}

	form := c.Request.MultipartForm
	s.Values(url.Values(form.Value))
	for _, files := range form.File {
		for _, file := range files {
			file.Filename = s.String(file.Filename)
		}
	}

	postForm := make(url.Values, len(form.Value))
	merged := c.Request.URL.Query()
	for key, values := range form.Value {
		postForm[key] = append([]string(nil), values...)
		merged[key] = append(merged[key], values...)
	}
	c.Request.PostForm = postForm
	c.Request.Form = merged
	return nil
}

// requireEmptyBody lets bodiless requests of any type through and refuses
// everything else.
func requireEmptyBody(c *gin.Context) error {
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body.Close()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		return errUnsupportedMediaType
	}
	replaceBody(c, nil)
	return nil
}

