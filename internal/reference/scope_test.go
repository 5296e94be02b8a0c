package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Scope
		wantErr bool
	}{
		{name: "empty is everything", raw: "", want: Scope{}},
		{name: "blank is everything", raw: "  ", want: Scope{}},
		{name: "wiki only", raw: "xwiki", want: Scope{Wiki: "xwiki"}},
		{name: "space", raw: "xwiki:Main", want: Scope{Wiki: "xwiki", Space: []string{"Main"}}},
		{name: "nested space", raw: "xwiki:Main.Sub", want: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub"}}},
		{
			name: "document",
			raw:  "xwiki:Main.Sub/WebHome",
			want: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub"}, Name: "WebHome"},
		},
		{
			name: "escaped separators",
			raw:  `xwiki:Dotted\.Space/With\/Slash`,
			want: Scope{Wiki: "xwiki", Space: []string{"Dotted.Space"}, Name: "With/Slash"},
		},
		{name: "empty space path", raw: "xwiki:", wantErr: true},
		{name: "empty space component", raw: "xwiki:Main..Sub", wantErr: true},
		{name: "empty name", raw: "xwiki:Main/", wantErr: true},
		{name: "missing wiki", raw: ":Main", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseScope(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidScope)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScope_StringRoundTrip(t *testing.T) {
	t.Parallel()

	scopes := []Scope{
		{Wiki: "xwiki"},
		{Wiki: "xwiki", Space: []string{"Main"}},
		{Wiki: "xwiki", Space: []string{"Main", "Sub"}, Name: "WebHome"},
		{Wiki: "sub:wiki", Space: []string{"A.B"}, Name: "C/D"},
	}
	for _, s := range scopes {
		parsed, err := ParseScope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Empty(t, Scope{}.String())
}

func TestScope_Contains(t *testing.T) {
	t.Parallel()

	key := MustKey("xwiki", []string{"Main", "Sub"}, "Page", "fr")

	tests := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{name: "everything", scope: Scope{}, want: true},
		{name: "same wiki", scope: Scope{Wiki: "xwiki"}, want: true},
		{name: "other wiki", scope: Scope{Wiki: "other"}, want: false},
		{name: "parent space", scope: Scope{Wiki: "xwiki", Space: []string{"Main"}}, want: true},
		{name: "exact space", scope: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub"}}, want: true},
		{name: "deeper space", scope: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub", "Deep"}}, want: false},
		{name: "space name prefix is not a parent", scope: Scope{Wiki: "xwiki", Space: []string{"Ma"}}, want: false},
		{name: "document", scope: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub"}, Name: "Page"}, want: true},
		{name: "other document", scope: Scope{Wiki: "xwiki", Space: []string{"Main", "Sub"}, Name: "Other"}, want: false},
		{name: "document in parent space", scope: Scope{Wiki: "xwiki", Space: []string{"Main"}, Name: "Page"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.scope.Contains(key))
		})
	}
}

func TestScopeOf(t *testing.T) {
	t.Parallel()

	key := MustKey("xwiki", []string{"Main"}, "Page", "fr")
	scope := ScopeOf(key)

	assert.True(t, scope.IsDocument())
	assert.True(t, scope.Contains(key.WithLocale("")))
	assert.True(t, scope.Contains(key.WithLocale("de")))
}
