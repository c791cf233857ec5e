package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/document"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
	"github.com/jhoicas/portal-intranet/pkg/textutil"
)

// MaxDocumentText tope de texto extraído de documentos aprobados (contexto de IA).
const MaxDocumentText = 10000

// DocumentUseCase cadena de revisiones y flujo de aprobación de documentos.
type DocumentUseCase struct {
	docs       repository.DocumentRepository
	categories repository.CategoryRepository
	tx         ports.TxRunner
	storage    ports.FileStorage
	converter  ports.DocumentConverter
	extractor  ports.TextExtractor
	events     ports.EventPublisher
	log        *logger.Logger
	now        func() time.Time
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	docs repository.DocumentRepository,
	categories repository.CategoryRepository,
	tx ports.TxRunner,
	storage ports.FileStorage,
	converter ports.DocumentConverter,
	extractor ports.TextExtractor,
	events ports.EventPublisher,
	log *logger.Logger,
) *DocumentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentUseCase{
		docs:       docs,
		categories: categories,
		tx:         tx,
		storage:    storage,
		converter:  converter,
		extractor:  extractor,
		events:     events,
		log:        log.Named("documentos"),
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *DocumentUseCase) WithClock(now func() time.Time) *DocumentUseCase {
	uc.now = now
	return uc
}

// Create registra la revisión 0 de un documento nuevo.
func (uc *DocumentUseCase) Create(ctx context.Context, actor dto.Principal, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	if _, err := uc.openCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	docType, err := document.ClassifyUpload(in.File.FileName)
	if err != nil {
		return nil, err
	}
	if in.PDF != nil {
		if docType != entity.DocTypeSpreadsheet || !isPDF(in.PDF.FileName) {
			return nil, fmt.Errorf("%w: PDF manual só é aceito junto de planilha", domain.ErrInvalidInput)
		}
		docType = entity.DocTypePDFSpreadsheet
	}

	now := uc.now()
	doc := &entity.Document{
		ID:           uuid.New().String(),
		Codigo:       uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Revision:     0,
		Status:       entity.DocStatusAwaitingAnalysis,
		CategoryID:   in.CategoryID,
		DocumentType: docType,
		RequesterID:  actor.UserID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.storeUploads(ctx, doc, in.File, in.PDF); err != nil {
		return nil, err
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		uc.removeFiles(doc.OriginalFile, doc.PDFFile)
		return nil, err
	}
	uc.publish(ctx, doc, "", actor.UserID)
	return uc.toResponse(doc, nil), nil
}

// NewRevision crea la revisión siguiente a partir de sourceID. Se rechaza mientras alguna
// revisión del mismo código siga abierta.
func (uc *DocumentUseCase) NewRevision(ctx context.Context, actor dto.Principal, sourceID string, in dto.NewRevisionRequest) (*dto.DocumentResponse, error) {
	source, err := uc.mustGet(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.openCategory(ctx, source.CategoryID); err != nil {
		return nil, err
	}
	docType, err := document.ClassifyUpload(in.File.FileName)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = source.Name
	}

	now := uc.now()
	rootID := source.ID
	doc := &entity.Document{
		ID:           uuid.New().String(),
		Codigo:       source.Codigo,
		Name:         name,
		Status:       entity.DocStatusAwaitingAnalysis,
		CategoryID:   source.CategoryID,
		DocumentType: docType,
		RootID:       &rootID,
		RequesterID:  actor.UserID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.tx.Run(ctx, func(r ports.TxRepos) error {
		open, err := r.Documents.HasOpenRevision(ctx, source.Codigo)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: já existe uma revisão em andamento para este documento", domain.ErrConflict)
		}
		maxRev, err := r.Documents.MaxRevision(ctx, source.Codigo)
		if err != nil {
			return err
		}
		if maxRev >= entity.MaxRevision {
			return fmt.Errorf("%w: limite de %d revisões atingido", domain.ErrConflict, entity.MaxRevision)
		}
		doc.Revision = maxRev + 1
		if err := uc.storeUploads(ctx, doc, in.File, nil); err != nil {
			return err
		}
		return r.Documents.Create(ctx, doc)
	})
	if err != nil {
		uc.removeFiles(doc.OriginalFile)
		return nil, err
	}
	uc.publish(ctx, doc, "", actor.UserID)
	return uc.toResponse(doc, nil), nil
}

// Transition aplica una acción del flujo dentro de una transacción. Al aprobar se genera el PDF,
// se extrae el texto y se inactivan las revisiones aprobadas anteriores; una falla de conversión
// aborta la transición.
func (uc *DocumentUseCase) Transition(ctx context.Context, actor dto.Principal, docID string, in dto.TransitionRequest) (*dto.DocumentResponse, error) {
	action := document.Action(in.Action)
	wfActor := workflowActor(actor)
	var (
		doc      *entity.Document
		from     string
		newFiles []string
	)
	err := uc.tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		doc, err = r.Documents.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		from, err = document.Transition(doc, action, wfActor, document.Input{
			DrafterID:  in.DrafterID,
			ApproverID: in.ApproverID,
			Reason:     in.Reason,
		}, uc.now())
		if err != nil {
			return err
		}
		if doc.Status == entity.DocStatusApproved {
			created, err := uc.renderPDF(ctx, doc)
			if created != "" {
				newFiles = append(newFiles, created)
			}
			if err != nil {
				return err
			}
			doc.TextContent = uc.extractText(doc)
			if err := r.Documents.DeactivateApproved(ctx, doc.Codigo, doc.ID); err != nil {
				return err
			}
		}
		return r.Documents.Update(ctx, doc)
	})
	if err != nil {
		uc.removeFiles(newFiles...)
		if errors.Is(err, domain.ErrConversionFailed) {
			uc.log.Error().Err(err).Str("document_id", docID).Msg("falha na geração do PDF, transição abortada")
		}
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("from", from).Str("to", doc.Status).Str("actor", actor.Username).Msg("transición de documento")
	uc.publish(ctx, doc, from, actor.UserID)
	return uc.toResponse(doc, document.AvailableActions(doc, wfActor)), nil
}

// GeneratePDF regenera la versión publicada de un documento aprobado.
// En pdf_spreadsheet el PDF subido es la versión publicada y se conserva.
func (uc *DocumentUseCase) GeneratePDF(ctx context.Context, docID string) (*dto.DocumentResponse, error) {
	doc, err := uc.mustGet(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType == entity.DocTypePDF {
		doc.PDFFile = ""
	}
	created, err := uc.renderPDF(ctx, doc)
	if err != nil {
		uc.removeFiles(created)
		return nil, err
	}
	doc.UpdatedAt = uc.now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return uc.toResponse(doc, nil), nil
}

// renderPDF produce la versión publicada según el tipo y devuelve la ruta creada (si hubo).
//   - pdf_spreadsheet: se conserva el PDF subido.
//   - spreadsheet: copia del editable en documentos/spreadsheet.
//   - pdf: conversión con LibreOffice hacia documentos/pdf.
func (uc *DocumentUseCase) renderPDF(ctx context.Context, doc *entity.Document) (string, error) {
	slug := textutil.Slugify(doc.Name)
	if slug == "" {
		slug = "documento"
	}
	switch doc.DocumentType {
	case entity.DocTypePDFSpreadsheet:
		if doc.PDFFile == "" {
			return "", fmt.Errorf("%w: PDF da planilha ausente", domain.ErrConversionFailed)
		}
		return "", nil
	case entity.DocTypeSpreadsheet:
		rel := path.Join("documentos", "spreadsheet", fmt.Sprintf("%s_v%d%s", slug, doc.Revision, strings.ToLower(filepath.Ext(doc.OriginalFile))))
		if err := uc.storage.Copy(doc.OriginalFile, rel); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
		}
		doc.PDFFile = rel
		return rel, nil
	case entity.DocTypePDF:
		if doc.PDFFile != "" {
			return "", nil
		}
		pdfPath, cleanup, err := uc.converter.ToPDF(ctx, uc.storage.Path(doc.OriginalFile))
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
		}
		rel := path.Join("documentos", "pdf", fmt.Sprintf("%s_v%d.pdf", slug, doc.Revision))
		if err := uc.storage.Import(pdfPath, rel); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
		}
		doc.PDFFile = rel
		return rel, nil
	}
	return "", fmt.Errorf("%w: tipo inválido %q", domain.ErrInvalidInput, doc.DocumentType)
}

// extractText texto del PDF publicado (o del editable si es planilha); fallas sólo se registran.
func (uc *DocumentUseCase) extractText(doc *entity.Document) string {
	if uc.extractor == nil {
		return ""
	}
	src := doc.PDFFile
	if src == "" || doc.DocumentType == entity.DocTypeSpreadsheet {
		src = doc.OriginalFile
	}
	data, err := uc.storage.ReadAll(src)
	if err != nil {
		uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo leer el archivo para indexar")
		return ""
	}
	text, err := uc.extractor.Extract(path.Base(src), data, MaxDocumentText)
	if err != nil {
		uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("extracción de texto fallida")
		return ""
	}
	return text
}

// ReplacePDF sustituye el PDF publicado por uno subido manualmente.
func (uc *DocumentUseCase) ReplacePDF(ctx context.Context, docID string, file dto.Upload) (*dto.DocumentResponse, error) {
	if !isPDF(file.FileName) {
		return nil, fmt.Errorf("%w: o arquivo deve ser PDF", domain.ErrInvalidInput)
	}
	doc, err := uc.mustGet(ctx, docID)
	if err != nil {
		return nil, err
	}
	rel := path.Join("documentos", "pdf", fmt.Sprintf("%s_v%d.pdf", textutil.Slugify(doc.Name), doc.Revision))
	if err := uc.storage.Save(ctx, rel, bytes.NewReader(file.Data)); err != nil {
		return nil, err
	}
	doc.PDFFile = rel
	if doc.Status == entity.DocStatusApproved {
		doc.TextContent = uc.extractText(doc)
	}
	doc.UpdatedAt = uc.now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return uc.toResponse(doc, nil), nil
}

// Rename cambia el nombre y registra el historial.
func (uc *DocumentUseCase) Rename(ctx context.Context, actor dto.Principal, docID, name string) (*dto.DocumentResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome obrigatório", domain.ErrInvalidInput)
	}
	var doc *entity.Document
	err := uc.tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		doc, err = r.Documents.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Name == name {
			return nil
		}
		userID := actor.UserID
		change := &entity.DocumentNameChange{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			OldName:    doc.Name,
			NewName:    name,
			UserID:     &userID,
			At:         uc.now(),
		}
		if err := r.Documents.AddNameChange(ctx, change); err != nil {
			return err
		}
		doc.Name = name
		doc.UpdatedAt = change.At
		return r.Documents.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(doc, nil), nil
}

// SetActive activa o inactiva una revisión.
func (uc *DocumentUseCase) SetActive(ctx context.Context, docID string, active bool) error {
	doc, err := uc.mustGet(ctx, docID)
	if err != nil {
		return err
	}
	doc.IsActive = active
	doc.UpdatedAt = uc.now()
	return uc.docs.Update(ctx, doc)
}

// Delete borra la revisión dejando registro de auditoría.
func (uc *DocumentUseCase) Delete(ctx context.Context, actor dto.Principal, docID string) error {
	var doc *entity.Document
	err := uc.tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		doc, err = r.Documents.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		audit := &entity.DeletedDocument{
			ID:           uuid.New().String(),
			UserID:       actor.UserID,
			DocumentName: doc.Name,
			Revision:     doc.Revision,
			At:           uc.now(),
		}
		if err := r.Documents.AddDeleted(ctx, audit); err != nil {
			return err
		}
		return r.Documents.Delete(ctx, doc.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("name", doc.Name).Int("revision", doc.Revision).Str("actor", actor.Username).Msg("documento eliminado")
	uc.removeFiles(doc.OriginalFile, doc.PDFFile)
	return nil
}

// Get devuelve la revisión y registra el acceso.
func (uc *DocumentUseCase) Get(ctx context.Context, actor dto.Principal, docID string) (*dto.DocumentResponse, error) {
	doc, err := uc.mustGet(ctx, docID)
	if err != nil {
		return nil, err
	}
	access := &entity.DocumentAccess{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		UserID:     actor.UserID,
		Username:   actor.Username,
		At:         uc.now(),
	}
	if err := uc.docs.AddAccess(ctx, access); err != nil {
		uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo registrar el acceso")
	}
	return uc.toResponse(doc, document.AvailableActions(doc, workflowActor(actor))), nil
}

// File ruta en disco y nombre de descarga del PDF publicado o del editable.
func (uc *DocumentUseCase) File(ctx context.Context, docID string, editable bool) (string, string, error) {
	doc, err := uc.mustGet(ctx, docID)
	if err != nil {
		return "", "", err
	}
	rel := doc.PDFFile
	if editable {
		rel = doc.OriginalFile
	}
	if rel == "" {
		return "", "", fmt.Errorf("%w: arquivo ainda não gerado", domain.ErrNotFound)
	}
	name := fmt.Sprintf("%s_v%02d%s", textutil.Slugify(doc.Name), doc.Revision, strings.ToLower(filepath.Ext(rel)))
	return uc.storage.Path(rel), name, nil
}

// ListApproved última revisión aprobada y activa de cada código.
func (uc *DocumentUseCase) ListApproved(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	in.DefaultPage()
	list, total, err := uc.docs.ListLatestApproved(ctx, entity.DocumentFilter{
		Name:       strings.TrimSpace(in.Name),
		CategoryID: in.CategoryID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return uc.toList(list, total, in.PageRequest), nil
}

// ListInactive revisiones inactivas.
func (uc *DocumentUseCase) ListInactive(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	return uc.list(ctx, in, "", false)
}

// ListRejected revisiones reprovadas.
func (uc *DocumentUseCase) ListRejected(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	return uc.list(ctx, in, entity.DocStatusRejected, true)
}

// Monitor todas las revisiones con filtro libre de estado.
func (uc *DocumentUseCase) Monitor(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	in.DefaultPage()
	list, total, err := uc.docs.List(ctx, entity.DocumentFilter{
		Name:       strings.TrimSpace(in.Name),
		CategoryID: in.CategoryID,
		Status:     in.Status,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return uc.toList(list, total, in.PageRequest), nil
}

func (uc *DocumentUseCase) list(ctx context.Context, in dto.DocumentFilterRequest, status string, active bool) (*dto.DocumentListResponse, error) {
	in.DefaultPage()
	list, total, err := uc.docs.List(ctx, entity.DocumentFilter{
		Name:       strings.TrimSpace(in.Name),
		CategoryID: in.CategoryID,
		Status:     status,
		Active:     &active,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return uc.toList(list, total, in.PageRequest), nil
}

// ListPending documentos esperando una acción del actor.
func (uc *DocumentUseCase) ListPending(ctx context.Context, actor dto.Principal) ([]dto.DocumentResponse, error) {
	list, err := uc.docs.ListPendingFor(ctx, actor.UserID, actor.Can(entity.PermAnalyzeDocument))
	if err != nil {
		return nil, err
	}
	wfActor := workflowActor(actor)
	out := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, *uc.toResponse(d, document.AvailableActions(d, wfActor)))
	}
	return out, nil
}

// ListRevisions revisiones de un código, de la más reciente a la más antigua.
func (uc *DocumentUseCase) ListRevisions(ctx context.Context, codigo string) ([]dto.DocumentResponse, error) {
	list, err := uc.docs.ListRevisions(ctx, codigo)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, *uc.toResponse(d, nil))
	}
	return out, nil
}

// ListAccesses últimas visualizaciones de la revisión.
func (uc *DocumentUseCase) ListAccesses(ctx context.Context, docID string) ([]dto.AccessResponse, error) {
	list, err := uc.docs.ListAccesses(ctx, docID, 500)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AccessResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.AccessResponse{UserID: a.UserID, Username: a.Username, At: a.At})
	}
	return out, nil
}

// NameHistory historial de renombrados.
func (uc *DocumentUseCase) NameHistory(ctx context.Context, docID string) ([]dto.NameChangeResponse, error) {
	list, err := uc.docs.ListNameChanges(ctx, docID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NameChangeResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.NameChangeResponse{OldName: c.OldName, NewName: c.NewName, UserID: c.UserID, At: c.At})
	}
	return out, nil
}

// CreateCategory alta de categoría.
func (uc *DocumentUseCase) CreateCategory(ctx context.Context, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c := &entity.Category{ID: uuid.New().String(), Name: strings.TrimSpace(in.Name), Blocked: in.Blocked, CreatedAt: uc.now()}
	if err := uc.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return &dto.CategoryResponse{ID: c.ID, Name: c.Name, Blocked: c.Blocked}, nil
}

// UpdateCategory edición de categoría.
func (uc *DocumentUseCase) UpdateCategory(ctx context.Context, id string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Blocked = in.Blocked
	if err := uc.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return &dto.CategoryResponse{ID: c.ID, Name: c.Name, Blocked: c.Blocked}, nil
}

// DeleteCategory elimina la categoría (falla si tiene documentos).
func (uc *DocumentUseCase) DeleteCategory(ctx context.Context, id string) error {
	return uc.categories.Delete(ctx, id)
}

// ListCategories todas las categorías.
func (uc *DocumentUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryResponse{ID: c.ID, Name: c.Name, Blocked: c.Blocked})
	}
	return out, nil
}

// SearchApprovedText documentos aprobados cuyo texto contiene los términos (contexto del chat).
func (uc *DocumentUseCase) SearchApprovedText(ctx context.Context, terms []string, limit int) ([]*entity.Document, error) {
	return uc.docs.SearchApprovedText(ctx, terms, limit)
}

func (uc *DocumentUseCase) openCategory(ctx context.Context, id string) (*entity.Category, error) {
	c, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: categoria inexistente", domain.ErrInvalidInput)
	}
	if c.Blocked {
		return nil, domain.ErrCategoryBlocked
	}
	return c, nil
}

func (uc *DocumentUseCase) storeUploads(ctx context.Context, doc *entity.Document, file dto.Upload, pdf *dto.Upload) error {
	slug := textutil.Slugify(doc.Name)
	if slug == "" {
		slug = "documento"
	}
	base := fmt.Sprintf("%s_%s_v%d", slug, shortID(doc.Codigo), doc.Revision)
	rel := path.Join("documentos", "editaveis", base+strings.ToLower(filepath.Ext(file.FileName)))
	if err := uc.storage.Save(ctx, rel, bytes.NewReader(file.Data)); err != nil {
		return err
	}
	doc.OriginalFile = rel
	if pdf != nil {
		pdfRel := path.Join("documentos", "pdf", base+".pdf")
		if err := uc.storage.Save(ctx, pdfRel, bytes.NewReader(pdf.Data)); err != nil {
			return err
		}
		doc.PDFFile = pdfRel
	}
	return nil
}

func (uc *DocumentUseCase) removeFiles(rels ...string) {
	for _, rel := range rels {
		if rel == "" {
			continue
		}
		if err := uc.storage.Remove(rel); err != nil {
			uc.log.Warn().Err(err).Str("path", rel).Msg("no se pudo borrar el archivo")
		}
	}
}

func (uc *DocumentUseCase) publish(ctx context.Context, doc *entity.Document, from, actorID string) {
	if uc.events == nil {
		return
	}
	ev := ports.DocumentStatusChanged{
		DocumentID:  doc.ID,
		Name:        doc.Name,
		Revision:    doc.Revision,
		From:        from,
		To:          doc.Status,
		ActorID:     actorID,
		RequesterID: doc.RequesterID,
		At:          doc.UpdatedAt,
	}
	if doc.DrafterID != nil {
		ev.DrafterID = *doc.DrafterID
	}
	if doc.ApproverID != nil {
		ev.ApproverID = *doc.ApproverID
	}
	if err := uc.events.PublishDocumentStatusChanged(ctx, ev); err != nil {
		uc.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo publicar el evento")
	}
}

func (uc *DocumentUseCase) mustGet(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (uc *DocumentUseCase) toList(list []*entity.Document, total int, page dto.PageRequest) *dto.DocumentListResponse {
	out := &dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, d := range list {
		out.Items = append(out.Items, *uc.toResponse(d, nil))
	}
	return out
}

func (uc *DocumentUseCase) toResponse(d *entity.Document, actions []document.Action) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:              d.ID,
		Codigo:          d.Codigo,
		Name:            d.Name,
		Revision:        d.Revision,
		Status:          d.Status,
		CategoryID:      d.CategoryID,
		DocumentType:    d.DocumentType,
		HasPDF:          d.PDFFile != "",
		RootID:          d.RootID,
		RequesterID:     d.RequesterID,
		AnalystID:       d.AnalystID,
		DrafterID:       d.DrafterID,
		ApproverID:      d.ApproverID,
		AnalyzedAt:      d.AnalyzedAt,
		DrafterAt:       d.DrafterAt,
		ApprovedAt:      d.ApprovedAt,
		RejectedAt:      d.RejectedAt,
		RejectionReason: d.RejectionReason,
		IsActive:        d.IsActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, string(a))
	}
	return resp
}

func workflowActor(p dto.Principal) document.Actor {
	return document.Actor{UserID: p.UserID, IsSuperuser: p.IsSuperuser(), Permissions: p.PermissionSet()}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
