package linker

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestResolve(t *testing.T) {
	languages := []string{"C", "C++11", "Java", "Python 3"}

	testCases := []struct {
		input      string
		candidates []string
		// Correlation is only compared when it is 1
		expected Match
		found    bool
	}{
		{
			input:      "C",
			candidates: languages,
			expected:   Match{Index: 0, Value: "C", Correlation: 1},
			found:      true,
		},
		{
			input:      "java",
			candidates: languages,
			expected:   Match{Index: 2, Value: "Java", Correlation: 1},
			found:      true,
		},
		{
			input:      "c++",
			candidates: languages,
			expected:   Match{Index: 1, Value: "C++11"},
			found:      true,
		},
		{
			input:      "python",
			candidates: languages,
			expected:   Match{Index: 3, Value: "Python 3"},
			found:      true,
		},
		{
			input:      "rust",
			candidates: languages,
			found:      false,
		},
		{
			input:      "A",
			candidates: []string{},
			found:      false,
		},
	}

	for _, test := range testCases {
		t.Run(fmt.Sprintf("%s in %v", test.input, test.candidates), func(t *testing.T) {
			match, found := Resolve(test.input, test.candidates, DefaultThreshold)
			if found != test.found {
				t.Fatalf("expected found = %v, got %v (%+v)", test.found, found, match)
			}
			if !found {
				return
			}

			opts := []cmp.Option{}
			if test.expected.Correlation != 1 {
				opts = append(opts, cmpopts.IgnoreFields(Match{}, "Correlation"))
			}
			diff := cmp.Diff(test.expected, match, opts...)
			if diff != "" {
				t.Fatal(diff)
			}
			if match.Correlation < DefaultThreshold {
				t.Fatalf("correlation %f below threshold", match.Correlation)
			}
		})
	}
}
