package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/aicost"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

const (
	// MaxAttachmentChars texto extraído por anexo enviado ao modelo.
	MaxAttachmentChars = 15000
	// MaxAttachmentBytes tamanho máximo de cada anexo.
	MaxAttachmentBytes = 15 << 20
	historyMessages    = 20
	llmTimeout         = 60 * time.Second
	contextDocuments   = 5
	defaultChatTitle   = "Nova conversa"
	systemInstruction  = "Responda sempre em português do Brasil. Não use emojis. " +
		"Analise o conteúdo dos arquivos anexados (indicados por [Conteúdo de:...]), se houver, para formular sua resposta."
)

var (
	extractableExt = map[string]bool{
		".pdf": true, ".docx": true, ".xlsx": true, ".odt": true, ".ods": true, ".txt": true,
		".csv": true, ".md": true, ".rtf": true, ".py": true, ".js": true, ".html": true, ".css": true,
	}
	imageMIME = map[string]string{
		".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png", ".webp": "image/webp",
		".gif": "image/gif", ".heic": "image/heic", ".heif": "image/heif",
	}
	docCodeRe = regexp.MustCompile(`(?i)\b([a-z]{2}[a-z]*\d{2,3})\b`)
	wordRe    = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	stopWords = map[string]bool{
		"de": true, "da": true, "do": true, "das": true, "dos": true, "e": true, "o": true, "a": true,
		"as": true, "os": true, "para": true, "por": true, "em": true, "no": true, "na": true,
	}
)

// AIUseCase orquesta el asistente de IA: conversaciones, llamada al LLM con historial
// y anexos, y registro del costo estimado de cada llamada.
// Cada llamada al LLM corre con un timeout de 60 s.
type AIUseCase struct {
	chats     repository.ChatRepository
	docs      repository.DocumentRepository
	llm       ports.LLMService
	extractor ports.TextExtractor
	usdToBRL  decimal.Decimal
	log       *logger.Logger
	now       func() time.Time
}

// NewAIUseCase construye el caso de uso inyectando el puerto LLMService.
func NewAIUseCase(chats repository.ChatRepository, docs repository.DocumentRepository, llm ports.LLMService, extractor ports.TextExtractor, usdToBRL decimal.Decimal, log *logger.Logger) *AIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AIUseCase{chats: chats, docs: docs, llm: llm, extractor: extractor, usdToBRL: usdToBRL, log: log.Named("ia"), now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *AIUseCase) WithClock(now func() time.Time) *AIUseCase {
	uc.now = now
	return uc
}

// CreateChat nueva conversación; el modelo debe estar permitido al usuario.
func (uc *AIUseCase) CreateChat(ctx context.Context, actor dto.Principal, in dto.CreateChatRequest) (*dto.ChatResponse, error) {
	key, err := allowedModel(actor, in.Model)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultChatTitle
	}
	now := uc.now()
	c := &entity.Chat{ID: uuid.New().String(), UserID: actor.UserID, Title: title, Model: key, CreatedAt: now, UpdatedAt: now}
	if err := uc.chats.CreateChat(ctx, c); err != nil {
		return nil, err
	}
	return chatToResponse(c), nil
}

// ListChats conversaciones del usuario, más recientes primero.
func (uc *AIUseCase) ListChats(ctx context.Context, actor dto.Principal) ([]dto.ChatResponse, error) {
	list, err := uc.chats.ListChats(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ChatResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *chatToResponse(c))
	}
	return out, nil
}

// RenameChat cambia el título.
func (uc *AIUseCase) RenameChat(ctx context.Context, actor dto.Principal, chatID, title string) (*dto.ChatResponse, error) {
	c, err := uc.ownChat(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: título vazio", domain.ErrInvalidInput)
	}
	c.Title = title
	c.UpdatedAt = uc.now()
	if err := uc.chats.UpdateChat(ctx, c); err != nil {
		return nil, err
	}
	return chatToResponse(c), nil
}

// DeleteChat elimina la conversación y sus mensajes.
func (uc *AIUseCase) DeleteChat(ctx context.Context, actor dto.Principal, chatID string) error {
	if _, err := uc.ownChat(ctx, actor, chatID); err != nil {
		return err
	}
	return uc.chats.DeleteChat(ctx, chatID)
}

// Messages historial completo de la conversación.
func (uc *AIUseCase) Messages(ctx context.Context, actor dto.Principal, chatID string) ([]dto.ChatMessageResponse, error) {
	if _, err := uc.ownChat(ctx, actor, chatID); err != nil {
		return nil, err
	}
	msgs, err := uc.chats.ListMessages(ctx, chatID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToResponse(m))
	}
	return out, nil
}

// SendMessage guarda el mensaje del usuario, llama al modelo con el historial reciente,
// los anexos y los documentos aprobados relacionados, y registra el costo.
func (uc *AIUseCase) SendMessage(ctx context.Context, actor dto.Principal, chatID string, in dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	c, err := uc.ownChat(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	modelKey := c.Model
	if in.Model != "" {
		modelKey = in.Model
	}
	modelKey, err = allowedModel(actor, modelKey)
	if err != nil {
		return nil, err
	}
	modelName, _ := aicost.ResolveModel(modelKey)

	text := strings.TrimSpace(removeEmojis(in.Text))
	var (
		images      []ports.LLMImage
		attachments []entity.ChatAttachment
		extracted   strings.Builder
	)
	for _, up := range in.Attachments {
		if len(up.Data) > MaxAttachmentBytes {
			return nil, fmt.Errorf("%w: arquivo %q excede o limite de %d MB", domain.ErrInvalidInput, up.FileName, MaxAttachmentBytes>>20)
		}
		ext := strings.ToLower(filepath.Ext(up.FileName))
		if mime, ok := imageMIME[ext]; ok {
			images = append(images, ports.LLMImage{MIMEType: mime, Data: up.Data})
			attachments = append(attachments, entity.ChatAttachment{ID: uuid.New().String(), FileName: up.FileName})
			continue
		}
		if !extractableExt[ext] {
			return nil, fmt.Errorf("%w: tipo de arquivo %q não é suportado", domain.ErrInvalidInput, ext)
		}
		content, err := uc.extractor.Extract(up.FileName, up.Data, MaxAttachmentChars)
		if err != nil {
			uc.log.Warn().Err(err).Str("file", up.FileName).Msg("extracción de texto fallida")
			content = fmt.Sprintf("(Erro ao ler o arquivo '%s')", up.FileName)
		}
		attachments = append(attachments, entity.ChatAttachment{ID: uuid.New().String(), FileName: up.FileName, ExtractedText: content})
		if strings.TrimSpace(content) == "" {
			fmt.Fprintf(&extracted, "\n[Não foi possível extrair texto de: %s]\n", up.FileName)
			continue
		}
		fmt.Fprintf(&extracted, "\n[Conteúdo de: %s]\n%s\n[Fim de: %s]\n", up.FileName, content, up.FileName)
	}
	if text == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: é necessário enviar um texto ou pelo menos um arquivo suportado", domain.ErrInvalidInput)
	}

	history, err := uc.chats.ListMessages(ctx, chatID, historyMessages)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	userMsg := &entity.ChatMessage{ID: uuid.New().String(), ChatID: chatID, Sender: entity.SenderUser, Text: text, CreatedAt: now}
	for i := range attachments {
		attachments[i].MessageID = userMsg.ID
	}
	userMsg.Attachments = attachments
	if err := uc.chats.AddMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	prompt := text
	if extracted.Len() > 0 {
		prompt += "\n\n--- Conteúdo dos Arquivos Anexados ---\n" + extracted.String() + "\n--- Fim do Conteúdo dos Arquivos ---"
	}
	if docContext := uc.documentContext(ctx, text); docContext != "" {
		prompt += "\n\n--- Documentos aprovados relacionados ---\n" + docContext + "--- Fim dos Documentos ---"
	}
	req := ports.LLMRequest{Model: modelName, System: systemInstruction, Prompt: prompt, Images: images}
	for _, m := range history {
		role := "user"
		if m.Sender == entity.SenderAI {
			role = "model"
		}
		req.History = append(req.History, ports.LLMMessage{Role: role, Text: m.Text})
	}

	// Timeout de 60 s: las respuestas con anexos grandes pueden demorar.
	llmCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()
	result, err := uc.llm.Chat(llmCtx, req)
	if err != nil {
		uc.log.Error().Err(err).Str("chat_id", chatID).Str("model", modelName).Msg("llamada al LLM fallida")
		return nil, fmt.Errorf("%w: assistente: %v", domain.ErrUpstream, err)
	}
	if result.Model != "" {
		modelName = result.Model
	}

	replyAt := uc.now()
	aiMsg := &entity.ChatMessage{ID: uuid.New().String(), ChatID: chatID, Sender: entity.SenderAI, Text: result.Text, CreatedAt: replyAt}
	if err := uc.chats.AddMessage(ctx, aiMsg); err != nil {
		return nil, err
	}

	costUSD := aicost.Calculate(modelName, result.InputTokens, result.OutputTokens, len(images))
	costBRL := aicost.ToBRL(costUSD, uc.usdToBRL)
	id := chatID
	usage := &entity.APIUsageLog{
		ID:           uuid.New().String(),
		UserID:       actor.UserID,
		ChatID:       &id,
		Model:        modelName,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		ImageCount:   len(images),
		CostUSD:      costUSD,
		CostBRL:      costBRL,
		CreatedAt:    replyAt,
	}
	if err := uc.chats.LogUsage(ctx, usage); err != nil {
		uc.log.Error().Err(err).Str("chat_id", chatID).Msg("no se pudo registrar el uso de la API")
	}

	c.UpdatedAt = replyAt
	c.Model = modelKey
	if strings.HasPrefix(strings.ToLower(c.Title), strings.ToLower(defaultChatTitle)) && len(history) == 0 {
		if t := titleFrom(text); t != "" {
			c.Title = t
		}
	}
	if err := uc.chats.UpdateChat(ctx, c); err != nil {
		uc.log.Warn().Err(err).Str("chat_id", chatID).Msg("no se pudo actualizar la conversación")
	}

	return &dto.SendMessageResponse{
		UserMessage: messageToResponse(userMsg),
		Reply:       messageToResponse(aiMsg),
		Model:       modelName,
		CostUSD:     costUSD,
		CostBRL:     costBRL,
	}, nil
}

// documentContext busca documentos aprobados citados en el mensaje. Un código de documento
// (DS06, MPCL01) tiene prioridad; si no, se usan las palabras del mensaje.
func (uc *AIUseCase) documentContext(ctx context.Context, text string) string {
	if uc.docs == nil || text == "" {
		return ""
	}
	var terms []string
	if m := docCodeRe.FindStringSubmatch(text); m != nil {
		terms = []string{strings.ToLower(m[1])}
	} else {
		for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
			if len([]rune(w)) > 3 && !stopWords[w] {
				terms = append(terms, w)
			}
		}
	}
	if len(terms) == 0 {
		return ""
	}
	docs, err := uc.docs.SearchApprovedText(ctx, terms, contextDocuments)
	if err != nil {
		uc.log.Warn().Err(err).Msg("búsqueda de documentos fallida")
		return ""
	}
	var b strings.Builder
	for _, d := range docs {
		if strings.TrimSpace(d.TextContent) == "" {
			continue
		}
		fmt.Fprintf(&b, "[Documento: %s (rev. %d)]\n%s\n[Fim de: %s]\n", d.Name, d.Revision, truncateRunes(d.TextContent, MaxDocumentText), d.Name)
	}
	return b.String()
}

// Usage monitor de costos. Sin ia.view_all_api_costs sólo se ve el propio consumo.
func (uc *AIUseCase) Usage(ctx context.Context, actor dto.Principal, in dto.UsageRequest) (*dto.UsageResponse, error) {
	to := in.To
	if to.IsZero() {
		to = uc.now()
	}
	from := in.From
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: período inválido", domain.ErrInvalidInput)
	}
	userID := actor.UserID
	if in.All {
		if !actor.Can(entity.PermViewAllAPICosts) {
			return nil, domain.ErrForbidden
		}
		userID = ""
	}
	rows, err := uc.chats.UsageSummary(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	out := &dto.UsageResponse{Rows: make([]dto.UsageRow, 0, len(rows)), PerModel: map[string]dto.UsageRow{}, TotalUSD: decimal.Zero, TotalBRL: decimal.Zero}
	for _, r := range rows {
		row := dto.UsageRow{
			UserID:       r.UserID,
			Username:     r.Username,
			Model:        r.Model,
			Calls:        r.Calls,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			CostUSD:      r.CostUSD,
			CostBRL:      r.CostBRL,
		}
		out.Rows = append(out.Rows, row)
		agg := out.PerModel[r.Model]
		agg.Model = r.Model
		agg.Calls += r.Calls
		agg.InputTokens += r.InputTokens
		agg.OutputTokens += r.OutputTokens
		agg.CostUSD = agg.CostUSD.Add(r.CostUSD)
		agg.CostBRL = agg.CostBRL.Add(r.CostBRL)
		out.PerModel[r.Model] = agg
		out.TotalUSD = out.TotalUSD.Add(r.CostUSD)
		out.TotalBRL = out.TotalBRL.Add(r.CostBRL)
	}
	sort.SliceStable(out.Rows, func(i, j int) bool { return out.Rows[i].CostUSD.GreaterThan(out.Rows[j].CostUSD) })
	return out, nil
}

// Models claves de modelo disponibles para el usuario.
func (uc *AIUseCase) Models(actor dto.Principal) []string {
	var out []string
	for key := range aicost.ModelMap {
		if perm := aicost.RequiredPermission(key); perm == "" || actor.Can(perm) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func (uc *AIUseCase) ownChat(ctx context.Context, actor dto.Principal, id string) (*entity.Chat, error) {
	c, err := uc.chats.GetChat(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.UserID != actor.UserID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// allowedModel normaliza la clave (vacía = default) y verifica el permiso del modelo.
func allowedModel(actor dto.Principal, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return aicost.DefaultModelKey, nil
	}
	if _, fallback := aicost.ResolveModel(key); fallback {
		return "", fmt.Errorf("%w: modelo %q desconhecido", domain.ErrInvalidInput, key)
	}
	if perm := aicost.RequiredPermission(key); perm != "" && !actor.Can(perm) {
		return "", fmt.Errorf("%w: sem permissão para o modelo %s", domain.ErrForbidden, key)
	}
	return key, nil
}

// titleFrom primeras cinco palabras del mensaje, con mayúscula inicial.
func titleFrom(text string) string {
	words := strings.Fields(text)
	if len(words) > 5 {
		words = words[:5]
	}
	t := strings.Trim(strings.TrimRight(strings.Join(words, " "), ".!?,;:"), `"'`)
	r := []rune(t)
	if len(r) < 2 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func removeEmojis(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF, r >= 0x2600 && r <= 0x27BF, r >= 0x1F000 && r <= 0x1F2FF, r == 0xFE0F, r == 0x200D:
			return -1
		}
		return r
	}, s)
}

func chatToResponse(c *entity.Chat) *dto.ChatResponse {
	return &dto.ChatResponse{ID: c.ID, Title: c.Title, Model: c.Model, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func messageToResponse(m *entity.ChatMessage) dto.ChatMessageResponse {
	r := dto.ChatMessageResponse{ID: m.ID, Sender: m.Sender, Text: m.Text, CreatedAt: m.CreatedAt}
	for _, a := range m.Attachments {
		r.Attachments = append(r.Attachments, a.FileName)
	}
	return r
}
