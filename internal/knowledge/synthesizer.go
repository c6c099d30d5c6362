package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policygenius/backend-go/internal/logger"
)

// RetrievalResult 单次检索命中，只在一次查询内存活
type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

// Synthesizer 基于问题与检索结果生成回答。
// 实现永远返回可用的回答字符串，内部失败自行降级，不向上抛错。
type Synthesizer interface {
	Answer(ctx context.Context, question string, retrieved []RetrievalResult) string
}

// answerBranch 一个上下文分支：检索文本命中任一关键词时使用该措辞
type answerBranch struct {
	contextWords []string
	template     string
}

// answerCategory 规则引擎的一个问题类别。
// 类别按声明顺序匹配，首个命中生效——顺序变化会改变
// 同时命中多个类别的问题的回答，测试将当前顺序固化为基准行为。
// 类别内的分支同样按顺序取首个命中，都未命中时用fallback。
type answerCategory struct {
	questionWords []string
	// 所有模板均带一个%s占位，填入引用的clause编号列表
	branches []answerBranch
	fallback string
}

var answerCategories = []answerCategory{
	{
		questionWords: []string{"coverage", "covered", "treatment", "medical"},
		branches: []answerBranch{
			{
				contextWords: []string{"hospitalization", "hospital"},
				template:     "Based on the policy clauses, hospitalization coverage is mentioned. Please refer to clauses %s for specific coverage details and conditions.",
			},
			{
				contextWords: []string{"treatment", "medical"},
				template:     "Medical treatments are addressed in the policy. Specific coverage details can be found in clauses %s.",
			},
		},
		fallback: "Coverage information is outlined in clauses %s. Review these sections for detailed coverage terms.",
	},
	{
		questionWords: []string{"exclusion", "excluded", "not covered"},
		branches: []answerBranch{
			{
				contextWords: []string{"exclusion", "excluded", "not covered"},
				template:     "Yes, the policy contains exclusions. Specific exclusions are detailed in clauses %s.",
			},
		},
		fallback: "Exclusion details can be found in clauses %s. Please review for complete exclusion terms.",
	},
	{
		questionWords: []string{"waiting period", "wait", "pre-existing"},
		branches: []answerBranch{
			{
				contextWords: []string{"waiting", "period"},
				template:     "Waiting periods are specified in the policy. Refer to clauses %s for specific waiting period terms.",
			},
			{
				contextWords: []string{"pre-existing"},
				template:     "Pre-existing conditions are addressed in clauses %s. Check these sections for coverage terms and waiting periods.",
			},
		},
		fallback: "Waiting period information is available in clauses %s.",
	},
	{
		questionWords: []string{"sum insured", "coverage amount", "benefit", "limit"},
		branches: []answerBranch{
			{
				contextWords: []string{"sum", "amount", "limit", "benefit"},
				template:     "Sum insured and benefit amounts are specified in the policy. Detailed information is in clauses %s.",
			},
		},
		fallback: "Coverage amounts and limits are detailed in clauses %s.",
	},
	{
		questionWords: []string{"claim", "settlement", "process"},
		branches: []answerBranch{
			{
				contextWords: []string{"claim"},
				template:     "Claim procedures are outlined in the policy. Specific claim process details are in clauses %s.",
			},
		},
		fallback: "Claims information can be found in clauses %s.",
	},
	{
		questionWords: []string{"tenure", "duration", "period", "term"},
		branches: []answerBranch{
			{
				contextWords: []string{"year", "month", "term", "period"},
				template:     "Policy term and duration details are specified in clauses %s.",
			},
		},
		fallback: "Policy duration information is available in clauses %s.",
	},
	{
		questionWords: []string{"age", "eligibility", "entry"},
		branches: []answerBranch{
			{
				contextWords: []string{"age"},
				template:     "Age-related eligibility criteria are mentioned in clauses %s.",
			},
		},
		fallback: "Eligibility information can be found in clauses %s.",
	},
	{
		questionWords: []string{"premium", "payment", "grace"},
		branches: []answerBranch{
			{
				contextWords: []string{"premium", "payment", "grace"},
				template:     "Premium and payment details, including grace periods, are specified in clauses %s.",
			},
		},
		fallback: "Payment terms are outlined in clauses %s.",
	},
	{
		questionWords: []string{"maternity", "pregnancy", "childbirth"},
		branches: []answerBranch{
			{
				contextWords: []string{"maternity", "pregnancy", "child"},
				template:     "Maternity benefits are addressed in the policy. Details are in clauses %s.",
			},
		},
		fallback: "Maternity coverage information can be found in clauses %s.",
	},
	{
		questionWords: []string{"cosmetic", "surgery", "plastic"},
		branches: []answerBranch{
			{
				contextWords: []string{"cosmetic", "plastic", "surgery"},
				template:     "Cosmetic surgery coverage is specifically mentioned in clauses %s.",
			},
		},
		fallback: "Surgery coverage details, including cosmetic procedures, are in clauses %s.",
	},
}

const genericAnswerTemplate = "Based on the available policy clauses %s, this information is covered in the policy document. Please review these specific sections for detailed terms and conditions."

// RuleBasedSynthesizer 确定性规则回答引擎。
// 没有生成式后端时的完整实现，同时也是生成式后端失败时的降级路径。
type RuleBasedSynthesizer struct{}

// NewRuleBasedSynthesizer 创建规则回答引擎
func NewRuleBasedSynthesizer() *RuleBasedSynthesizer {
	return &RuleBasedSynthesizer{}
}

// Answer 按关键词把问题归入固定优先序的类别，
// 再根据检索文本中是否出现类别关键词选择肯定或转引措辞。
// 所有回答都引用检索到的chunk编号，调用方可据此审计出处。
func (s *RuleBasedSynthesizer) Answer(ctx context.Context, question string, retrieved []RetrievalResult) string {
	questionLower := strings.ToLower(question)
	contextLower := strings.ToLower(concatChunkTexts(retrieved))
	clauses := clauseList(retrieved)

	for _, category := range answerCategories {
		if !containsAny(questionLower, category.questionWords) {
			continue
		}
		for _, branch := range category.branches {
			if containsAny(contextLower, branch.contextWords) {
				return fmt.Sprintf(branch.template, clauses)
			}
		}
		return fmt.Sprintf(category.fallback, clauses)
	}

	return fmt.Sprintf(genericAnswerTemplate, clauses)
}

// GenerativeSynthesizer 调用LLM生成回答，失败时降级到规则引擎。
// 并发请求各自独立调用后端，互不排队。
type GenerativeSynthesizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	fallback    *RuleBasedSynthesizer
}

// NewGenerativeSynthesizer 创建生成式回答引擎；apiKey为空时直接返回规则引擎
func NewGenerativeSynthesizer(apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) Synthesizer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return NewRuleBasedSynthesizer()
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &GenerativeSynthesizer{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		fallback:    NewRuleBasedSynthesizer(),
	}
}

// Answer 组装上下文提示词并调用后端；任何失败记日志后走规则降级，不向调用方暴露
func (s *GenerativeSynthesizer) Answer(ctx context.Context, question string, retrieved []RetrievalResult) string {
	prompt := buildPrompt(question, retrieved)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: float32(s.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logger.Warn("生成式回答失败，降级到规则引擎", zap.Error(err))
		return s.fallback.Answer(ctx, question, retrieved)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		logger.Warn("生成式回答为空，降级到规则引擎")
		return s.fallback.Answer(ctx, question, retrieved)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// buildPrompt 把问题与带clause编号的检索文本拼成提示词
func buildPrompt(question string, retrieved []RetrievalResult) string {
	var clauses strings.Builder
	for i, result := range retrieved {
		if i > 0 {
			clauses.WriteString("\n\n")
		}
		clauses.WriteString(fmt.Sprintf("Clause %d: %s", result.Chunk.ID, result.Chunk.Text))
	}

	return fmt.Sprintf(`You're an expert insurance claims assistant. Based on the following policy clauses, answer the user's question in clear terms and justify your answer using the source clauses.

Question: %s

Relevant Policy Clauses:
%s

Instructions:
1. Provide a clear yes/no answer if applicable
2. Reference specific clause numbers/sections
3. Keep response concise (1-2 sentences)
4. If information is insufficient, state clearly

Answer:`, question, clauses.String())
}

func concatChunkTexts(retrieved []RetrievalResult) string {
	parts := make([]string, len(retrieved))
	for i, result := range retrieved {
		parts[i] = result.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

// clauseList 检索命中的chunk编号列表，如 "0, 3, 5"
func clauseList(retrieved []RetrievalResult) string {
	ids := make([]string, len(retrieved))
	for i, result := range retrieved {
		ids[i] = fmt.Sprintf("%d", result.Chunk.ID)
	}
	return strings.Join(ids, ", ")
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
