package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

type mockImageGen struct {
	generateFn func(ctx context.Context, category domain.Category) (string, error)
}

func (m *mockImageGen) GenerateImage(ctx context.Context, category domain.Category) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, category)
	}
	return "", nil
}

func TestQuizQuestions_FixedSet(t *testing.T) {
	svc := NewQuizService(nil)

	questions := svc.Questions()
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Prompt == "" {
			t.Errorf("question %d has empty prompt", q.ID)
		}
		if len(q.Options) < 4 {
			t.Errorf("question %d has %d options, expected at least 4", q.ID, len(q.Options))
		}
	}
}

func TestEvaluate_RuleMapping(t *testing.T) {
	cases := []struct {
		answers []string
		want    domain.Category
	}{
		{[]string{"food", "variety", "large"}, domain.CategoryMercado},
		{[]string{"health", "specialized", "professional"}, domain.CategoryFarmacia},
		{[]string{"meal", "cozy", "sweet"}, domain.CategoryCafeteria},
		{[]string{"meal", "quick", "price"}, domain.CategoryLanchonete},
		{[]string{"meal", "variety", "price"}, domain.CategoryRestaurante},
		{[]string{"food", "fresh", "sweet"}, domain.CategoryPadaria},
		{[]string{"goods", "variety", "price"}, domain.CategoryLoja},
		// No rule matches: default is the first category.
		{[]string{"fresh", "sweet", "price"}, domain.CategoryMercado},
	}

	svc := NewQuizService(nil)
	for _, tc := range cases {
		result, err := svc.Evaluate(tc.answers)
		if err != nil {
			t.Fatalf("Evaluate(%v): %v", tc.answers, err)
		}
		if result.Category != tc.want {
			t.Errorf("Evaluate(%v) = %q, want %q", tc.answers, result.Category, tc.want)
		}
		if result.Description == "" {
			t.Errorf("Evaluate(%v): empty description", tc.answers)
		}
	}
}

func TestEvaluate_CozyWinsOverQuick(t *testing.T) {
	// Both cozy and quick present: the cozy rule is listed first and wins.
	svc := NewQuizService(nil)

	result, err := svc.Evaluate([]string{"meal", "cozy", "quick"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != domain.CategoryCafeteria {
		t.Errorf("expected Cafeteria, got %q", result.Category)
	}
}

func TestEvaluate_CaseAndSpaceInsensitive(t *testing.T) {
	svc := NewQuizService(nil)

	result, err := svc.Evaluate([]string{" Health ", "SPECIALIZED", "professional"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != domain.CategoryFarmacia {
		t.Errorf("expected Farmácia, got %q", result.Category)
	}
}

func TestEvaluate_IncompleteAnswers(t *testing.T) {
	svc := NewQuizService(nil)

	for _, answers := range [][]string{nil, {"food"}, {"food", "variety"}, {"a", "b", "c", "d"}} {
		if _, err := svc.Evaluate(answers); !errors.Is(err, ErrIncompleteQuiz) {
			t.Errorf("Evaluate(%v): expected ErrIncompleteQuiz, got %v", answers, err)
		}
	}
}

func TestRecommend_AttachesImage(t *testing.T) {
	images := &mockImageGen{
		generateFn: func(ctx context.Context, category domain.Category) (string, error) {
			return "https://img.example/" + string(category), nil
		},
	}
	svc := NewQuizService(images)

	result, err := svc.Recommend(context.Background(), []string{"health", "specialized", "professional"})
	if err != nil {
		t.Fatal(err)
	}
	if result.ImageURL != "https://img.example/Farmácia" {
		t.Errorf("unexpected image url %q", result.ImageURL)
	}
}

func TestRecommend_ImageFailureIsNonBlocking(t *testing.T) {
	images := &mockImageGen{
		generateFn: func(ctx context.Context, category domain.Category) (string, error) {
			return "", errors.New("image backend down")
		},
	}
	svc := NewQuizService(images)

	result, err := svc.Recommend(context.Background(), []string{"goods", "variety", "price"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != domain.CategoryLoja {
		t.Errorf("expected Loja, got %q", result.Category)
	}
	if result.ImageURL != "" {
		t.Errorf("expected empty image url on failure, got %q", result.ImageURL)
	}
}
