package domain

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

var fallbackPattern = regexp.MustCompile(`^User(\d{1,3})$`)

func TestDisplayName_Keeps_Trimmed_Name(t *testing.T) {
	req := require.New(t)

	req.Equal("Alice", DisplayName("  Alice \t"))
	req.Equal("Émilie 🎉", DisplayName("Émilie 🎉"))
}

func TestDisplayName_Falls_Back_When_Blank(t *testing.T) {
	req := require.New(t)

	for _, requested := range []string{"", "   ", "\n\t"} {
		name := DisplayName(requested)
		matches := fallbackPattern.FindStringSubmatch(name)
		req.Len(matches, 2, "unexpected fallback %q", name)

		n, err := strconv.Atoi(matches[1])
		req.NoError(err)
		req.GreaterOrEqual(n, 0)
		req.Less(n, 1000)
	}
}

func TestNewSession(t *testing.T) {
	req := require.New(t)

	session := NewSession("conn-1", " Bob ")

	req.Equal(Session{DisplayName: "Bob", ConnectionID: "conn-1"}, session)
}

func TestPresenceTexts(t *testing.T) {
	req := require.New(t)

	req.Equal("Alice joined the chat", JoinedText("Alice"))
	req.Equal("Alice left the chat", LeftText("Alice"))
}
