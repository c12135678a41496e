package cookie

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(f float64) *float64 { return &f }

func TestToCanonical(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		set := ToCanonical([]Native{
			{Name: "sid", Value: "abc", Domain: ".example.com"},
		})
		require.Len(t, set, 1)
		rec := set[0]
		require.Equal(t, "/", rec.Path)
		require.True(t, rec.Secure)
		require.Equal(t, SameSiteLax, rec.SameSite)
		require.Nil(t, rec.ExpirationDate)
	})

	t.Run("explicit secure false survives", func(t *testing.T) {
		insecure := false
		set := ToCanonical([]Native{
			{Name: "legacy", Domain: "example.com", Secure: &insecure},
		})
		require.Len(t, set, 1)
		require.False(t, set[0].Secure)
	})

	t.Run("session cookies omit expiry", func(t *testing.T) {
		set := ToCanonical([]Native{
			{Name: "sid", Domain: "example.com", Session: true, ExpirationDate: 1234567890},
			{Name: "persist", Domain: "example.com", ExpirationDate: 1234567890},
		})
		require.Len(t, set, 2)
		require.Nil(t, set[0].ExpirationDate)
		require.NotNil(t, set[1].ExpirationDate)
		require.Equal(t, float64(1234567890), *set[1].ExpirationDate)
	})

	t.Run("browser sameSite spellings are canonicalized", func(t *testing.T) {
		set := ToCanonical([]Native{
			{Name: "a", Domain: "x.com", SameSite: "strict"},
			{Name: "b", Domain: "x.com", SameSite: "no_restriction"},
			{Name: "c", Domain: "x.com", SameSite: ""},
		})
		require.Equal(t, SameSiteStrict, set[0].SameSite)
		require.Equal(t, SameSiteNone, set[1].SameSite)
		require.Equal(t, SameSiteLax, set[2].SameSite)
	})

	t.Run("nameless natives are skipped", func(t *testing.T) {
		set := ToCanonical([]Native{
			{Name: "", Domain: "x.com"},
			{Name: "ok", Domain: "x.com"},
		})
		require.Len(t, set, 1)
		require.Equal(t, "ok", set[0].Name)
	})

	t.Run("duplicates collapse last wins", func(t *testing.T) {
		set := ToCanonical([]Native{
			{Name: "sid", Domain: "x.com", Value: "old"},
			{Name: "other", Domain: "x.com", Value: "keep"},
			{Name: "sid", Domain: "x.com", Value: "new"},
		})
		require.Len(t, set, 2)
		require.Equal(t, "sid", set[0].Name)
		require.Equal(t, "new", set[0].Value)
		require.Equal(t, "other", set[1].Name)
	})
}

func TestTransportRoundTrip(t *testing.T) {
	t.Parallel()

	original := Set{
		{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: SameSiteLax},
		{Name: "pref", Value: "dark", Domain: "example.com", Path: "/app", Secure: true, SameSite: SameSiteStrict, ExpirationDate: fptr(1893456000)},
	}

	encoded, err := EncodeTransport(original)
	require.NoError(t, err)

	decoded, err := DecodeTransport(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	// Session-ness survives the trip.
	require.True(t, decoded[0].Session())
	require.False(t, decoded[1].Session())
}

func TestDecodeTransport(t *testing.T) {
	t.Parallel()

	t.Run("legacy raw JSON payloads still parse", func(t *testing.T) {
		raw := `[{"name":"sid","value":"abc","domain":".example.com"}]`
		set, err := DecodeTransport(raw)
		require.NoError(t, err)
		require.Len(t, set, 1)
		require.Equal(t, "sid", set[0].Name)
		require.Equal(t, "/", set[0].Path)
		require.Equal(t, SameSiteLax, set[0].SameSite)
	})

	t.Run("empty payload is an error", func(t *testing.T) {
		_, err := DecodeTransport("   ")
		require.Error(t, err)
	})

	t.Run("garbage payload is an error", func(t *testing.T) {
		_, err := DecodeTransport("!!not-base64-not-json!!")
		require.Error(t, err)
	})

	t.Run("malformed entries are skipped not fatal", func(t *testing.T) {
		raw := `[{"name":"good","domain":"x.com"},{"name":""},"not-an-object",{"name":"also-good","domain":"x.com"}]`
		encoded := base64.StdEncoding.EncodeToString([]byte(raw))
		set, err := DecodeTransport(encoded)
		require.NoError(t, err)
		require.Len(t, set, 2)
		require.Equal(t, "good", set[0].Name)
		require.Equal(t, "also-good", set[1].Name)
	})

	t.Run("zero expiry normalizes to session", func(t *testing.T) {
		raw := `[{"name":"sid","domain":"x.com","expirationDate":0}]`
		set, err := DecodeTransport(base64.StdEncoding.EncodeToString([]byte(raw)))
		require.NoError(t, err)
		require.Len(t, set, 1)
		require.Nil(t, set[0].ExpirationDate)
		require.True(t, set[0].Session())
	})

	t.Run("compact JSON round-trips without base64", func(t *testing.T) {
		set := Set{{Name: "n", Value: "v", Domain: "x.com", Path: "/", SameSite: SameSiteLax}}
		raw, err := json.Marshal(set)
		require.NoError(t, err)

		decoded, err := DecodeTransport(string(raw))
		require.NoError(t, err)
		require.Equal(t, set, decoded)
	})
}

func TestSessionOmittedInJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Record{Name: "sid", Domain: "x.com", Path: "/", SameSite: SameSiteLax})
	require.NoError(t, err)
	require.NotContains(t, string(raw), "expirationDate")
}

func TestDomainForURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", DomainForURL(Record{Domain: ".example.com"}, "fallback.com"))
	require.Equal(t, "sub.example.com", DomainForURL(Record{Domain: "sub.example.com"}, "fallback.com"))
	require.Equal(t, "fallback.com", DomainForURL(Record{}, "fallback.com"))
	require.Equal(t, "", DomainForURL(Record{}, ""))
}

func TestInjectionURL(t *testing.T) {
	t.Parallel()

	t.Run("secure cookies use https", func(t *testing.T) {
		u, err := InjectionURL(Record{Name: "sid", Secure: true, Path: "/"}, "example.com")
		require.NoError(t, err)
		require.Equal(t, "https://example.com/", u)
	})

	t.Run("secure false downgrades to http", func(t *testing.T) {
		u, err := InjectionURL(Record{Name: "legacy", Secure: false, Path: "/app"}, "example.com")
		require.NoError(t, err)
		require.Equal(t, "http://example.com/app", u)
	})

	t.Run("missing path defaults to root", func(t *testing.T) {
		u, err := InjectionURL(Record{Name: "sid", Secure: true}, "example.com")
		require.NoError(t, err)
		require.Equal(t, "https://example.com/", u)
	})

	t.Run("empty host is an error", func(t *testing.T) {
		_, err := InjectionURL(Record{Name: "sid"}, "")
		require.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	set := Normalize(Set{
		{Name: "", Domain: "x.com"},
		{Name: "sid", Domain: "x.com", Value: "old"},
		{Name: "sid", Domain: "x.com", Value: "new"},
		{Name: "zero", Domain: "x.com", ExpirationDate: fptr(0)},
	})
	require.Len(t, set, 2)
	require.Equal(t, "new", set[0].Value)
	require.Equal(t, "/", set[0].Path)
	require.Equal(t, SameSiteLax, set[0].SameSite)
	require.Nil(t, set[1].ExpirationDate)
}
