package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimNewline(t *testing.T) {
	assert.Equal(t, []byte("hello"), trimNewline([]byte("hello\n")))
	assert.Equal(t, []byte("hello"), trimNewline([]byte("hello\r\n")))
	assert.Equal(t, []byte("hello"), trimNewline([]byte("hello")))
	assert.Equal(t, []byte{}, trimNewline([]byte("\n")))
}
