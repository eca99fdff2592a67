package hf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MARSWALLET/tagteam/inference"
)

func TestImageToText(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	t.Run("generated text array", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected, actual := "/models/acme/vision", r.URL.Path; expected != actual {
				t.Errorf("Expected path %q, got %q", expected, actual)
			}
			if expected, actual := "Bearer sekrit", r.Header.Get("Authorization"); expected != actual {
				t.Errorf("Expected auth header %q, got %q", expected, actual)
			}
			body, _ := io.ReadAll(r.Body)
			if expected, actual := string(image), string(body); expected != actual {
				t.Errorf("Expected raw image bytes in body, got %q", actual)
			}
			w.Write([]byte(`[{"generated_text":"  a dog on a beach  "}]`))
		}))
		defer ts.Close()

		h := Init("sekrit", ts.URL, "", ts.Client())
		text, err := h.ImageToText(t.Context(), image, "acme/vision")
		if err != nil {
			t.Fatal(err)
		}
		// Whitespace is preserved at this layer, trimming is the orchestrator's job.
		if expected, actual := "  a dog on a beach  ", text; expected != actual {
			t.Errorf("Expected %q, got %q", expected, actual)
		}
	})

	t.Run("bare string response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`"a dog"`))
		}))
		defer ts.Close()

		h := Init("sekrit", ts.URL, "", ts.Client())
		text, err := h.ImageToText(t.Context(), image, "acme/vision")
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := "a dog", text; expected != actual {
			t.Errorf("Expected %q, got %q", expected, actual)
		}
	})

	t.Run("upstream error surfaces body text", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model acme/vision is overloaded", http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		h := Init("sekrit", ts.URL, "", ts.Client())
		_, err := h.ImageToText(t.Context(), image, "acme/vision")
		if err == nil {
			t.Fatal("Expected an error")
		}
		if !strings.Contains(err.Error(), "model acme/vision is overloaded") {
			t.Errorf("Expected upstream text in error, got %q", err)
		}
	})
}

func TestChatCompletion(t *testing.T) {
	messages := []inference.Message{{Role: inference.RoleUser, Content: "what is in the image?"}}

	t.Run("first choice content", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("Unexpected path %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"cc-1","choices":[{"index":0,"message":{"role":"assistant","content":"The cat is on the mat."}}]}`))
		}))
		defer ts.Close()

		h := Init("sekrit", "", ts.URL+"/", ts.Client())
		answer, err := h.ChatCompletion(t.Context(), "acme/logic", messages, 500, 0.7)
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := "The cat is on the mat.", answer; expected != actual {
			t.Errorf("Expected %q, got %q", expected, actual)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"cc-2","choices":[]}`))
		}))
		defer ts.Close()

		h := Init("sekrit", "", ts.URL+"/", ts.Client())
		_, err := h.ChatCompletion(t.Context(), "acme/logic", messages, 500, 0.7)
		if err == nil {
			t.Fatal("Expected an error")
		}
		if !strings.Contains(err.Error(), "no choices") {
			t.Errorf("Expected a no choices error, got %q", err)
		}
	})
}

func TestIsHealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	h := Init("", ts.URL, "", ts.Client())
	if !h.IsHealthy() {
		t.Error("Expected healthy")
	}

	ts.Close()
	if h.IsHealthy() {
		t.Error("Expected unhealthy after server close")
	}
}
