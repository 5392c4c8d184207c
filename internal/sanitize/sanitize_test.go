package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain name", input: "bot.php", expected: "bot.php"},
		{name: "spaces replaced", input: "my script.php", expected: "my_script.php"},
		{name: "directory stripped", input: "../../etc/passwd", expected: "passwd"},
		{name: "absolute path stripped", input: "/var/www/index.php", expected: "index.php"},
		{name: "windows path stripped", input: `C:\bots\run.php`, expected: "run.php"},
		{name: "unicode replaced", input: "скрипт.php", expected: "______.php"},
		{name: "allowed punctuation kept", input: "a_b-c.d", expected: "a_b-c.d"},
		{name: "shell metacharacters", input: "x;rm -rf.sh", expected: "x_rm_-rf.sh"},
		{name: "empty input", input: "", expected: ""},
		{name: "trailing separator", input: "dir/", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FileName(tc.input))
		})
	}
}

func TestFileNameCharacterSet(t *testing.T) {
	inputs := []string{
		"hello world.txt",
		"../..//..\\evil",
		"token=123&x=<script>",
		"\x00\x01name",
		"normal_name.php",
	}

	for _, input := range inputs {
		got := FileName(input)

		assert.NotContains(t, got, "/")
		assert.NotContains(t, got, `\`)
		for _, r := range got {
			ok := r == '_' || r == '.' || r == '-' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				t.Fatalf("unexpected character %q in sanitized name %q", r, got)
			}
		}
	}
}

func TestFileNameUTF8Safe(t *testing.T) {
	got := FileName(strings.Repeat("é", 3) + ".txt")
	assert.NotContains(t, got, "é")
	assert.True(t, strings.HasSuffix(got, ".txt"))
}
