package main

import "testing"

func TestClamp1to5(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {3, 3}, {5, 5}, {10, 5}, {-2, 1},
	}
	for _, tc := range cases {
		if got := clamp1to5(tc.in); got != tc.want {
			t.Fatalf("clamp1to5(%d)=%d, esperaba %d", tc.in, got, tc.want)
		}
	}
}

func TestDetectCharacterBreak(t *testing.T) {
	t.Run("respuesta en personaje", func(t *testing.T) {
		if detectCharacterBreak("公園でピクニックしようよ！") {
			t.Fatal("falso positivo")
		}
	})

	t.Run("salida de personaje en japones", func(t *testing.T) {
		if !detectCharacterBreak("私はAIアシスタントなのでお答えできません") {
			t.Fatal("no detecto la salida de personaje")
		}
	})

	t.Run("salida de personaje en ingles", func(t *testing.T) {
		if !detectCharacterBreak("As an AI language model I cannot plan trips") {
			t.Fatal("no detecto la salida de personaje")
		}
	})
}
