package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Cafe Nero", Text("  <b>Cafe</b> Nero<script>alert(1)</script> "))
	assert.Equal(t, "", Text("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Zoë Worksp", Truncate("Zoë Workspace", 10))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("x", 0))
	assert.Equal(t, 3, Len("Zoë"))
}

func TestText_KeepsAmpersand(t *testing.T) {
	assert.Equal(t, "Tom & Jerry's", Text("Tom & Jerry's"))
}
