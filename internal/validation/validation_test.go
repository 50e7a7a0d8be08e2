package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseDriveLetter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DriveLetter
		wantErr bool
	}{
		// Valid letters
		{"upper case", "V", 'V', false},
		{"lower case", "v", 'V', false},
		{"lowest letter", "D", 'D', false},
		{"lowest letter lower", "d", 'D', false},
		{"highest letter", "Z", 'Z', false},
		{"highest letter lower", "z", 'Z', false},

		// Reserved letters
		{"reserved A", "A", 0, true},
		{"reserved c", "c", 0, true},

		// Wrong shape
		{"empty", "", 0, true},
		{"two letters", "VV", 0, true},
		{"with colon", "V:", 0, true},
		{"digit", "5", 0, true},
		{"symbol", "[", 0, true},
		{"space", " ", 0, true},
		{"non ascii", "é", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDriveLetter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDriveLetter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDriveLetter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDriveLetter_ErrorType(t *testing.T) {
	_, err := ParseDriveLetter("b")
	require.Error(t, err)

	var invalid *InvalidDriveLetterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "b", invalid.Given)
	assert.ErrorIs(t, err, ErrInvalidDriveLetter)
	assert.Contains(t, err.Error(), "D-Z")
}

func TestDriveLetter_Root(t *testing.T) {
	d, err := ParseDriveLetter("v")
	require.NoError(t, err)
	assert.Equal(t, "V", d.String())
	assert.Equal(t, "V:/", d.Root())
}

func TestCheckDestination(t *testing.T) {
	drive := DriveLetter('V')

	tests := []struct {
		name       string
		dest       string
		wantErr    bool
		wantFormat bool
	}{
		{"root forward slash", "V:/", false, false},
		{"root back slash", `V:\`, false, false},
		{"lower case letter", "v:/DCIM", false, false},
		{"nested windows path", `v:\DCIM\Camera`, false, false},
		{"other drive", "W:/DCIM", true, false},
		{"relative path", "DCIM", true, false},
		{"empty", "", true, false},
		{"no separator", "V:DCIM", true, true},
		{"letter only", "V", true, true},
		{"unc style", "Vx/share", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDestination(tt.dest, drive)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckDestination(%q) error = %v, wantErr %v", tt.dest, err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var mismatch *DestinationMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.wantFormat, errors.Is(err, ErrInvalidDestinationFormat))
		})
	}
}

// TestPropertyParseDriveLetter verifies a letter is accepted iff it folds into D-Z.
func TestPropertyParseDriveLetter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringN(0, 3, -1).Draw(t, "input")

		_, err := ParseDriveLetter(s)

		upper := strings.ToUpper(s)
		want := len(s) == 1 && upper[0] >= 'D' && upper[0] <= 'Z'
		if want != (err == nil) {
			t.Fatalf("ParseDriveLetter(%q) error = %v, want accepted = %v", s, err, want)
		}
	})
}

// TestPropertyParseDriveLetterAlphabet checks every ASCII letter explicitly.
func TestPropertyParseDriveLetterAlphabet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.ByteRange(0, 127).Draw(t, "char")

		got, err := ParseDriveLetter(string([]byte{c}))

		folded := c
		if c >= 'a' && c <= 'z' {
			folded = c - ('a' - 'A')
		}
		if folded >= 'D' && folded <= 'Z' {
			if err != nil || byte(got) != folded {
				t.Fatalf("ParseDriveLetter(%q) = %q, %v; want %q", c, got, err, folded)
			}
		} else if err == nil {
			t.Fatalf("ParseDriveLetter(%q) accepted an invalid letter", c)
		}
	})
}

// TestPropertyDestinationMismatch verifies the mismatch error depends only on
// the leading letter, whatever separator the rest of the path uses.
func TestPropertyDestinationMismatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		drive := DriveLetter(rapid.ByteRange('D', 'Z').Draw(t, "drive"))
		letter := rapid.SampledFrom([]byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")).Draw(t, "letter")
		sep := rapid.SampledFrom([]string{"/", `\`}).Draw(t, "sep")
		rest := rapid.StringMatching(`[a-zA-Z0-9 _.]{0,12}`).Draw(t, "rest")

		dest := string([]byte{letter}) + ":" + sep + rest
		err := CheckDestination(dest, drive)

		same := strings.EqualFold(string([]byte{letter}), drive.String())
		if same != (err == nil) {
			t.Fatalf("CheckDestination(%q, %s) error = %v, want match = %v", dest, drive, err, same)
		}
	})
}
