package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/aicost"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

type aiFixture struct {
	uc        *usecase.AIUseCase
	chats     *fakeChats
	docs      *fakeDocs
	llm       *fakeLLM
	extractor *fakeExtractor
}

func newAIFixture() *aiFixture {
	f := &aiFixture{
		chats: newFakeChats(&entity.Chat{ID: "c1", UserID: "u-req", Title: "Nova conversa", Model: aicost.DefaultModelKey}),
		docs: newFakeDocs(&entity.Document{
			ID: "d1", Name: "DS06 Segurança", Revision: 3, Status: entity.DocStatusApproved,
			TextContent: "Uso obrigatório de capacete.",
		}),
		llm:       &fakeLLM{result: &ports.LLMResult{Text: "Use capacete.", InputTokens: 1_000_000, OutputTokens: 1_000_000}},
		extractor: &fakeExtractor{text: "conteúdo da planilha"},
	}
	f.uc = usecase.NewAIUseCase(f.chats, f.docs, f.llm, f.extractor, decimal.NewFromInt(5), nil).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func chatUser() dto.Principal { return dto.Principal{UserID: "u-req", Username: "req"} }

func TestAICreateChat_ModeloRestrito(t *testing.T) {
	f := newAIFixture()

	_, err := f.uc.CreateChat(context.Background(), chatUser(), dto.CreateChatRequest{Model: "gemini-2.5-pro"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	pro := chatUser()
	pro.Permissions = []string{entity.PermModel25Pro}
	resp, err := f.uc.CreateChat(context.Background(), pro, dto.CreateChatRequest{Model: "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", resp.Model)
	assert.Equal(t, "Nova conversa", resp.Title)
}

func TestAICreateChat_ModeloDesconhecido(t *testing.T) {
	f := newAIFixture()

	_, err := f.uc.CreateChat(context.Background(), chatUser(), dto.CreateChatRequest{Model: "gpt-qualquer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAISendMessage_RegistraCustoETitulo(t *testing.T) {
	f := newAIFixture()

	resp, err := f.uc.SendMessage(context.Background(), chatUser(), "c1", dto.SendMessageRequest{
		Text: "qual a regra do DS06 para visitantes na obra? 🙂",
	})
	require.NoError(t, err)

	assert.Equal(t, "Use capacete.", resp.Reply.Text)
	assert.Equal(t, "qual a regra do DS06 para visitantes na obra?", resp.UserMessage.Text)
	assert.True(t, resp.CostUSD.Equal(decimal.RequireFromString("1.40")), resp.CostUSD.String())
	assert.True(t, resp.CostBRL.Equal(decimal.RequireFromString("7")), resp.CostBRL.String())

	require.Len(t, f.chats.usage, 1)
	log := f.chats.usage[0]
	assert.Equal(t, "u-req", log.UserID)
	assert.Equal(t, aicost.DefaultModel, log.Model)
	assert.Equal(t, 1_000_000, log.InputTokens)

	require.Len(t, f.chats.messages["c1"], 2)
	assert.Equal(t, entity.SenderUser, f.chats.messages["c1"][0].Sender)
	assert.Equal(t, entity.SenderAI, f.chats.messages["c1"][1].Sender)

	assert.Equal(t, "Qual a regra do DS06", f.chats.chats["c1"].Title)

	require.Len(t, f.docs.searched, 1)
	assert.Equal(t, []string{"ds06"}, f.docs.searched[0])
	require.Len(t, f.llm.reqs, 1)
	assert.Contains(t, f.llm.reqs[0].Prompt, "[Documento: DS06 Segurança (rev. 3)]")
	assert.Contains(t, f.llm.reqs[0].System, "português do Brasil")
}

func TestAISendMessage_HistoricoEAnexos(t *testing.T) {
	f := newAIFixture()
	f.chats.messages["c1"] = []*entity.ChatMessage{
		{ID: "m1", ChatID: "c1", Sender: entity.SenderUser, Text: "oi"},
		{ID: "m2", ChatID: "c1", Sender: entity.SenderAI, Text: "olá"},
	}

	_, err := f.uc.SendMessage(context.Background(), chatUser(), "c1", dto.SendMessageRequest{
		Attachments: []dto.Upload{
			{FileName: "custos.xlsx", Data: []byte("xlsx")},
			{FileName: "foto.PNG", Data: []byte("png")},
		},
	})
	require.NoError(t, err)

	req := f.llm.reqs[0]
	require.Len(t, req.History, 2)
	assert.Equal(t, "user", req.History[0].Role)
	assert.Equal(t, "model", req.History[1].Role)
	require.Len(t, req.Images, 1)
	assert.Equal(t, "image/png", req.Images[0].MIMEType)
	assert.Contains(t, req.Prompt, "[Conteúdo de: custos.xlsx]\nconteúdo da planilha")

	saved := f.chats.messages["c1"][2]
	require.Len(t, saved.Attachments, 2)
	assert.Equal(t, "conteúdo da planilha", saved.Attachments[0].ExtractedText)
	// com histórico o título não muda
	assert.Equal(t, "Nova conversa", f.chats.chats["c1"].Title)
	require.Len(t, f.chats.usage, 1)
	assert.Equal(t, 1, f.chats.usage[0].ImageCount)
}

func TestAISendMessage_AnexoNaoSuportado(t *testing.T) {
	f := newAIFixture()

	_, err := f.uc.SendMessage(context.Background(), chatUser(), "c1", dto.SendMessageRequest{
		Text:        "veja",
		Attachments: []dto.Upload{{FileName: "setup.exe", Data: []byte("MZ")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.llm.reqs)
}

func TestAISendMessage_FalhaDoModelo(t *testing.T) {
	f := newAIFixture()
	f.llm.err = errBoom

	_, err := f.uc.SendMessage(context.Background(), chatUser(), "c1", dto.SendMessageRequest{Text: "teste"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Empty(t, f.chats.usage)
}

func TestAISendMessage_ConversaDeOutroUsuario(t *testing.T) {
	f := newAIFixture()

	_, err := f.uc.SendMessage(context.Background(), dto.Principal{UserID: "u-outro"}, "c1", dto.SendMessageRequest{Text: "oi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAIUsage_TodosExigePermissao(t *testing.T) {
	f := newAIFixture()
	f.chats.summary = []*entity.APIUsageSummary{
		{UserID: "u1", Model: "m-a", Calls: 2, CostUSD: decimal.RequireFromString("0.5"), CostBRL: decimal.RequireFromString("2.5")},
		{UserID: "u2", Model: "m-a", Calls: 1, CostUSD: decimal.RequireFromString("1.5"), CostBRL: decimal.RequireFromString("7.5")},
	}

	_, err := f.uc.Usage(context.Background(), chatUser(), dto.UsageRequest{All: true})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	monitor := chatUser()
	monitor.Permissions = []string{entity.PermViewAllAPICosts}
	resp, err := f.uc.Usage(context.Background(), monitor, dto.UsageRequest{All: true})
	require.NoError(t, err)
	assert.Equal(t, "", f.chats.lastUser)
	assert.Equal(t, "u2", resp.Rows[0].UserID)
	assert.Equal(t, 3, resp.PerModel["m-a"].Calls)
	assert.True(t, resp.TotalUSD.Equal(decimal.NewFromInt(2)))

	_, err = f.uc.Usage(context.Background(), chatUser(), dto.UsageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u-req", f.chats.lastUser)
}

func TestAIModels_FiltraPorPermissao(t *testing.T) {
	f := newAIFixture()

	models := f.uc.Models(chatUser())
	assert.Contains(t, models, aicost.DefaultModelKey)
	assert.NotContains(t, models, "gemini-2.5-pro")
	assert.NotContains(t, models, "gemini-1.5-pro")
}
