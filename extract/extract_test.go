package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	nuxt "github.com/rahjooh/nuxt-scraper"
)

const nuxt3Page = `<!DOCTYPE html>
<html>
<head><title>demo</title></head>
<body>
<div id="app">rendered</div>
<script src="/bundle.js"></script>
<script type="application/json" id="__NUXT_DATA__">[{}, {"title": 2}, "hello"]</script>
</body>
</html>`

const nuxt2Page = `<!DOCTYPE html>
<html>
<body>
<script>window.__NUXT__={"state":{"count":3}};window.other=1;</script>
</body>
</html>`

func TestFromHTMLElement(t *testing.T) {
	ex, err := FromHTML(strings.NewReader(nuxt3Page))
	require.NoError(t, err)
	require.Equal(t, MethodElement, ex.Method)
	require.JSONEq(t, `[{}, {"title": 2}, "hello"]`, ex.Raw)
}

func TestFromHTMLWindow(t *testing.T) {
	ex, err := FromHTML(strings.NewReader(nuxt2Page))
	require.NoError(t, err)
	require.Equal(t, MethodWindow, ex.Method)
	require.JSONEq(t, `{"state":{"count":3}}`, ex.Raw)
}

func TestFromHTMLPrefersElement(t *testing.T) {
	page := `<html><body>
<script>window.__NUXT__={"old": true};</script>
<script id="__NUXT_DATA__" type="application/json">[{}, "new"]</script>
</body></html>`

	ex, err := FromString(page)
	require.NoError(t, err)
	require.Equal(t, MethodElement, ex.Method)
}

func TestFromHTMLNoPayload(t *testing.T) {
	_, err := FromString(`<html><body><p>nothing here</p></body></html>`)
	require.ErrorIs(t, err, ErrNoNuxtData)

	// an empty payload element does not count
	_, err = FromString(`<html><body><script id="__NUXT_DATA__">   </script></body></html>`)
	require.ErrorIs(t, err, ErrNoNuxtData)
}

func TestFromHTMLSkipsNonLiteralWindowAssignment(t *testing.T) {
	page := `<html><body>
<script>window.__NUXT__=(function(a){return {data:a}}(1));</script>
</body></html>`

	_, err := FromString(page)
	require.ErrorIs(t, err, ErrNoNuxtData)
}

func TestExtractThenHydrate(t *testing.T) {
	ex, err := FromHTML(strings.NewReader(nuxt3Page))
	require.NoError(t, err)

	res, err := nuxt.Hydrate(ex.Raw)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "hello"}, res.Value)
}
