package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op           string
	value, floor uint32
}

type recordingBackend struct {
	calls []call
}

func (r *recordingBackend) Current() uint32 { return 0 }
func (r *recordingBackend) Max() uint32     { return 100 }
func (r *recordingBackend) Close() error    { return nil }

func (r *recordingBackend) Raise(by, floor uint32) error {
	r.calls = append(r.calls, call{"raise", by, floor})
	return nil
}

func (r *recordingBackend) Lower(by, floor uint32) error {
	r.calls = append(r.calls, call{"lower", by, floor})
	return nil
}

func (r *recordingBackend) Set(v, floor uint32) error {
	r.calls = append(r.calls, call{"set", v, floor})
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"40", Set(40)},
		{"40%", Set(40)},
		{" 0% ", Set(0)},
		{"+5", Raise(5)},
		{"+5%", Raise(5)},
		{"5%+", Raise(5)},
		{"-10", Lower(10)},
		{"-10%", Lower(10)},
		{"10%-", Lower(10)},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "%", "abc", "+-5", "5.5%", "++5", "-"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidCommand, in)
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "+5%", Raise(5).String())
	assert.Equal(t, "-7%", Lower(7).String())
	assert.Equal(t, "40%", Set(40).String())

	for _, c := range []Command{Raise(5), Lower(7), Set(40)} {
		back, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
}

func TestApply(t *testing.T) {
	b := &recordingBackend{}

	require.NoError(t, Raise(5).Apply(b, 10))
	require.NoError(t, Lower(3).Apply(b, 20))
	require.NoError(t, Set(40).Apply(b, 30))

	assert.Equal(t, []call{
		{"raise", 5, 10},
		{"lower", 3, 20},
		{"set", 40, 30},
	}, b.calls)
}
