package fuzztests

import "testing"

const (
	maxFuzzInput = 64 << 10
	maxFuzzFiles = 3
)

func clampInput(input []byte) string {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return string(input)
}

func addShaderSeeds(f *testing.F) {
	seeds := []string{
		"",
		"#version 120\n",
		"#include \"common.glsl\"\n",
		"  #include \"lib/a.glsl\" // trailing\n",
		"#include \"/lib/abs.glsl\"\n#include \"../up.glsl\"\n",
		"#include \"\xe6\x97\xa5\xe6\x9c\xac.glsl\"\n",
		"#include \"a.glsl\"\r\n#include \"a.glsl\"\r\n",
		"\ufeff#include \"b.glsl\"\n",
		"#include \"unterminated\n",
		"#include <system.glsl>\n",
		"#line 1 0\nvoid main() {}\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func addLogSeeds(f *testing.F) {
	seeds := []string{
		"",
		"0(3) : error C0000: syntax error, unexpected '}'\n",
		"1(2) : warning C7022: unrecognized profile specifier\n",
		"ERROR: 0:12: 'foo' : undeclared identifier\n",
		"WARNING: 1:0: extension(#123) unsupported\n",
		"ERROR: 99999999999999999999:1: 'x' : overflow\n",
		"garbage\n\n\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}
