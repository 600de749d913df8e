package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
	"github.com/JVdev14/ache-pre-os/internal/core/ports"
)

// ErrIncompleteQuiz is returned when the answer set does not cover all questions.
var ErrIncompleteQuiz = errors.New("quiz requires exactly 3 answers")

// quizQuestions are the three fixed single-choice prompts.
var quizQuestions = []domain.QuizQuestion{
	{
		ID:     1,
		Prompt: "O que você está procurando agora?",
		Options: []domain.QuizOption{
			{Token: "food", Label: "Alimentos para casa"},
			{Token: "health", Label: "Saúde e bem-estar"},
			{Token: "meal", Label: "Uma refeição fora"},
			{Token: "goods", Label: "Produtos em geral"},
		},
	},
	{
		ID:     2,
		Prompt: "Qual estilo combina mais com você?",
		Options: []domain.QuizOption{
			{Token: "variety", Label: "Muita variedade"},
			{Token: "specialized", Label: "Atendimento especializado"},
			{Token: "quick", Label: "Rápido e prático"},
			{Token: "cozy", Label: "Aconchegante"},
			{Token: "fresh", Label: "Fresquinho do dia"},
		},
	},
	{
		ID:     3,
		Prompt: "O que pesa mais na escolha?",
		Options: []domain.QuizOption{
			{Token: "large", Label: "Grandes quantidades"},
			{Token: "professional", Label: "Orientação profissional"},
			{Token: "sweet", Label: "Um doce na saída"},
			{Token: "price", Label: "O menor preço"},
		},
	},
}

// quizRule maps a token predicate to a category. Rules are evaluated top to
// bottom and the first match wins, so order is load-bearing: the cozy rule
// must come before the quick one, and both before the generic meal rule.
type quizRule struct {
	tokens   []string
	category domain.Category
}

var quizRules = []quizRule{
	{[]string{"food", "variety", "large"}, domain.CategoryMercado},
	{[]string{"health"}, domain.CategoryFarmacia},
	{[]string{"meal", "cozy"}, domain.CategoryCafeteria},
	{[]string{"meal", "quick"}, domain.CategoryLanchonete},
	{[]string{"meal"}, domain.CategoryRestaurante},
	{[]string{"food", "fresh"}, domain.CategoryPadaria},
	{[]string{"goods"}, domain.CategoryLoja},
}

var quizDescriptions = map[domain.Category]string{
	domain.CategoryMercado:     "Um mercado tem a variedade e o volume que você procura.",
	domain.CategoryFarmacia:    "Uma farmácia atende suas necessidades de saúde com orientação.",
	domain.CategoryCafeteria:   "Uma cafeteria aconchegante é o lugar ideal para a sua pausa.",
	domain.CategoryLanchonete:  "Uma lanchonete resolve sua fome de forma rápida e prática.",
	domain.CategoryRestaurante: "Um restaurante completo para a sua refeição.",
	domain.CategoryPadaria:     "Uma padaria com produtos fresquinhos todos os dias.",
	domain.CategoryLoja:        "Uma loja de variedades cobre o que você precisa.",
	domain.CategoryOutros:      "Explore os estabelecimentos próximos de você.",
}

// QuizService maps quiz answers to a recommended category.
type QuizService struct {
	images       ports.ImageGenerator // nil when image generation is not wired
	imageTimeout time.Duration
}

// NewQuizService creates a new QuizService.
func NewQuizService(images ports.ImageGenerator) *QuizService {
	return &QuizService{images: images, imageTimeout: 10 * time.Second}
}

// Questions returns the fixed question set.
func (s *QuizService) Questions() []domain.QuizQuestion {
	return quizQuestions
}

// Evaluate maps an answer set to a category using the ordered rule list.
// The default is the first category when no rule matches.
func (s *QuizService) Evaluate(answers []string) (domain.QuizResult, error) {
	if len(answers) != len(quizQuestions) {
		return domain.QuizResult{}, ErrIncompleteQuiz
	}

	have := make(map[string]bool, len(answers))
	for _, a := range answers {
		have[strings.ToLower(strings.TrimSpace(a))] = true
	}

	category := domain.Categories[0]
	for _, rule := range quizRules {
		if matchesAll(have, rule.tokens) {
			category = rule.category
			break
		}
	}

	return domain.QuizResult{
		Category:    category,
		Description: quizDescriptions[category],
	}, nil
}

// Recommend evaluates the answers and, when an image generator is wired,
// attaches an illustrative image. Image failures never block the result.
func (s *QuizService) Recommend(ctx context.Context, answers []string) (domain.QuizResult, error) {
	result, err := s.Evaluate(answers)
	if err != nil {
		return domain.QuizResult{}, err
	}

	if s.images != nil {
		imgCtx, cancel := context.WithTimeout(ctx, s.imageTimeout)
		defer cancel()
		url, err := s.images.GenerateImage(imgCtx, result.Category)
		if err != nil {
			slog.Warn("quiz image generation failed", "category", result.Category, "error", err)
		} else {
			result.ImageURL = url
		}
	}

	return result, nil
}

func matchesAll(have map[string]bool, tokens []string) bool {
	for _, t := range tokens {
		if !have[t] {
			return false
		}
	}
	return true
}
