package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScannerFindsDisallowedCalls(t *testing.T) {
	scanner := NewScanner(DefaultDenyList)

	testCases := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "clean script",
			content:  `<?php echo "hello"; file_get_contents("x"); ?>`,
			expected: nil,
		},
		{
			name:     "direct exec call",
			content:  `<?php exec("ls -la"); ?>`,
			expected: []string{"exec"},
		},
		{
			name:     "case insensitive",
			content:  `<?php EVAL($code); ?>`,
			expected: []string{"eval"},
		},
		{
			name:     "whitespace before paren",
			content:  "<?php system   (\"id\"); ?>",
			expected: []string{"system"},
		},
		{
			name:     "multiple findings ordered",
			content:  `<?php $x = base64_decode($y); shell_exec($x); ?>`,
			expected: []string{"shell_exec", "base64_decode"},
		},
		{
			name:     "name without call is allowed",
			content:  `<?php $comment = "exec is disallowed here"; ?>`,
			expected: nil,
		},
		{
			name:     "substring does not match",
			content:  `<?php myexecutor("x"); executive(); ?>`,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, scanner.Scan([]byte(tc.content)))
		})
	}
}

func TestScannerEmptyContent(t *testing.T) {
	scanner := NewScanner(DefaultDenyList)
	assert.Empty(t, scanner.Scan(nil))
	assert.Empty(t, scanner.Scan([]byte{}))
}
