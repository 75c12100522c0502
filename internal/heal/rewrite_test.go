package heal

import (
	"strings"
	"testing"
)

func TestRewriteStructure(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "logger warn renamed",
			in:   "logger.warn('disk almost full')\n",
			want: "logger.warning('disk almost full')\n",
		},
		{
			name: "warnings module untouched",
			in:   "warnings.warn('deprecated')\n",
			want: "warnings.warn('deprecated')\n",
		},
		{
			name: "chained receiver untouched",
			in:   "self.logger.warn('x')\n",
			want: "self.logger.warn('x')\n",
		},
		{
			name: "warn inside string untouched",
			in:   "s = 'logger.warn(x)'\n",
			want: "s = 'logger.warn(x)'\n",
		},
		{
			name: "method gains self",
			in:   "class C:\n    def f(x):\n        pass\n",
			want: "class C:\n    def f(self, x):\n        pass\n",
		},
		{
			name: "existing self untouched",
			in:   "class C:\n    def f(self, x):\n        pass\n",
			want: "class C:\n    def f(self, x):\n        pass\n",
		},
		{
			name: "cls accepted as receiver",
			in:   "class C:\n    def f(cls, x):\n        pass\n",
			want: "class C:\n    def f(cls, x):\n        pass\n",
		},
		{
			name: "empty parameter list skipped",
			in:   "def f():\n    pass\n",
			want: "def f():\n    pass\n",
		},
		{
			name: "star args skipped",
			in:   "def f(*args):\n    pass\n",
			want: "def f(*args):\n    pass\n",
		},
		{
			name: "both rewrites in one pass",
			in:   "class C:\n    def f(x):\n        logger.warn(x)\n",
			want: "class C:\n    def f(self, x):\n        logger.warning(x)\n",
		},
		{
			name: "multi-line def header left alone",
			in:   "def f(\n    x,\n):\n    pass\n",
			want: "def f(\n    x,\n):\n    pass\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteStructure(tt.in)
			if err != nil {
				t.Fatalf("RewriteStructure() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RewriteStructure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteStructure_ParseFailure(t *testing.T) {
	inputs := []string{
		"def f((\n",
		"try\n    pass\n",
		"s = \"\"\"unclosed\n",
	}

	for _, in := range inputs {
		if _, err := RewriteStructure(in); err == nil {
			t.Errorf("RewriteStructure(%q) expected parse error, got nil", in)
		} else if !strings.Contains(err.Error(), "structural rewrite") {
			t.Errorf("error %q not wrapped with stage context", err)
		}
	}
}
