package scanner

import "testing"

func TestNextToken_BasicTokens(t *testing.T) {
	input := `(){},.-+;/* ! != = == > >= < <=`

	tests := []struct {
		expectedType   TokenType
		expectedLexeme string
	}{
		{LeftParen, "("},
		{RightParen, ")"},
		{LeftBrace, "{"},
		{RightBrace, "}"},
		{Comma, ","},
		{Dot, "."},
		{Minus, "-"},
		{Plus, "+"},
		{Semicolon, ";"},
		{Slash, "/"},
		{Star, "*"},
		{Bang, "!"},
		{BangEqual, "!="},
		{Equal, "="},
		{EqualEqual, "=="},
		{Greater, ">"},
		{GreaterEqual, ">="},
		{Less, "<"},
		{LessEqual, "<="},
		{EOF, ""},
	}

	s := New(input)
	for i, tt := range tests {
		tok := s.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("test[%d] - wrong lexeme. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNextToken_KeywordsAndIdentifiers(t *testing.T) {
	input := `and class else false for fun if nil or print return super this true var while foo _bar2`

	expected := []TokenType{
		And, Class, Else, False, For, Fun, If, Nil, Or, Print, Return,
		Super, This, True, Var, While, Identifier, Identifier, EOF,
	}

	s := New(input)
	for i, want := range expected {
		tok := s.NextToken()
		if tok.Type != want {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (%q)", i, want, tok.Type, tok.Lexeme)
		}
	}
}

func TestNextToken_NumbersAndStrings(t *testing.T) {
	input := `123 3.14 "hello world"`

	s := New(input)

	tok := s.NextToken()
	if tok.Type != Number || tok.Lexeme != "123" {
		t.Fatalf("expected integer literal 123, got %v %q", tok.Type, tok.Lexeme)
	}

	tok = s.NextToken()
	if tok.Type != Number || tok.Lexeme != "3.14" {
		t.Fatalf("expected float literal 3.14, got %v %q", tok.Type, tok.Lexeme)
	}

	tok = s.NextToken()
	if tok.Type != String || tok.Lexeme != `"hello world"` {
		t.Fatalf("expected string literal, got %v %q", tok.Type, tok.Lexeme)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	s := New(`"unterminated`)
	tok := s.NextToken()
	if tok.Type != Error {
		t.Fatalf("expected Error token, got %v", tok.Type)
	}
}

func TestNextToken_LineComments(t *testing.T) {
	input := "var a = 1; // this is a comment\nvar b = 2;"
	s := New(input)

	var line1Seen, line2Seen bool
	for {
		tok := s.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Line == 1 {
			line1Seen = true
		}
		if tok.Line == 2 {
			line2Seen = true
		}
	}
	if !line1Seen || !line2Seen {
		t.Fatalf("expected tokens on both line 1 and line 2")
	}
}

func TestNextToken_SkipsWhitespace(t *testing.T) {
	input := "  \t\n  var   \n x ;"
	s := New(input)

	tok := s.NextToken()
	if tok.Type != Var {
		t.Fatalf("expected Var, got %v", tok.Type)
	}
	if tok.Line != 2 {
		t.Fatalf("expected var on line 2, got line %d", tok.Line)
	}

	tok = s.NextToken()
	if tok.Type != Identifier || tok.Lexeme != "x" {
		t.Fatalf("expected identifier x, got %v %q", tok.Type, tok.Lexeme)
	}
}

func TestNextToken_EofIsSticky(t *testing.T) {
	s := New("")
	for i := 0; i < 3; i++ {
		tok := s.NextToken()
		if tok.Type != EOF {
			t.Fatalf("call %d: expected EOF, got %v", i, tok.Type)
		}
	}
}
