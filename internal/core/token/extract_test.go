package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		raw     http.Header
		want    string
		ok      bool
	}{
		{name: "no header"},
		{name: "standard", headers: map[string]string{"Authorization": "Bearer abc.def.ghi"}, want: "abc.def.ghi", ok: true},
		{name: "lowercase scheme", headers: map[string]string{"Authorization": "bearer abc"}, want: "abc", ok: true},
		{name: "uppercase scheme", headers: map[string]string{"Authorization": "BEARER abc"}, want: "abc", ok: true},
		{name: "extra spaces", headers: map[string]string{"Authorization": "Bearer    abc  "}, want: "abc", ok: true},
		{name: "other scheme", headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}},
		{name: "scheme only", headers: map[string]string{"Authorization": "Bearer "}},
		{name: "proxied", headers: map[string]string{"X-Forwarded-Authorization": "Bearer prox"}, want: "prox", ok: true},
		{name: "redirected", headers: map[string]string{"Redirect-Authorization": "Bearer redir"}, want: "redir", ok: true},
		{
			name:    "standard wins over proxied",
			headers: map[string]string{"Authorization": "Bearer std", "X-Forwarded-Authorization": "Bearer prox"},
			want:    "std",
			ok:      true,
		},
		{
			name:    "non-bearer standard header is not skipped",
			headers: map[string]string{"Authorization": "Basic abc", "X-Forwarded-Authorization": "Bearer prox"},
		},
		{name: "non-canonical key", raw: http.Header{"authorization": {"Bearer lower"}}, want: "lower", ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			for k, v := range tc.raw {
				req.Header[k] = v
			}
			got, ok := Extract(req)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Extract() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
