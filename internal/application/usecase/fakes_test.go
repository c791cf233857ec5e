package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain/altforce"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var errBoom = errors.New("boom")

// ── storage ──────────────────────────────────────────────────────────────────

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{files: map[string][]byte{}} }

func (s *memStorage) Save(_ context.Context, rel string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel] = data
	return nil
}

func (s *memStorage) Open(rel string) (io.ReadCloser, error) {
	data, err := s.ReadAll(rel)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) ReadAll(rel string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[rel]
	if !ok {
		return nil, errors.New("no existe: " + rel)
	}
	return data, nil
}

func (s *memStorage) Import(_, rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel] = []byte("%PDF-1.4 convertido")
	return nil
}

func (s *memStorage) Copy(src, dst string) error {
	data, err := s.ReadAll(src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[dst] = data
	return nil
}

func (s *memStorage) Remove(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, rel)
	return nil
}

func (s *memStorage) Path(rel string) string { return "/media/" + rel }

func (s *memStorage) has(rel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[rel]
	return ok
}

// ── transacciones ────────────────────────────────────────────────────────────

type fakeTx struct {
	repos ports.TxRepos
	runs  int
}

func (t *fakeTx) Run(_ context.Context, fn func(r ports.TxRepos) error) error {
	t.runs++
	return fn(t.repos)
}

// ── documentos ───────────────────────────────────────────────────────────────

type fakeDocs struct {
	repository.DocumentRepository
	byID        map[string]*entity.Document
	deactivated []string
	accesses    int
	searched    [][]string
	nameChanges []*entity.DocumentNameChange
	deleted     []*entity.DeletedDocument
}

func newFakeDocs(docs ...*entity.Document) *fakeDocs {
	f := &fakeDocs{byID: map[string]*entity.Document{}}
	for _, d := range docs {
		f.byID[d.ID] = d
	}
	return f
}

// copias: el caso de uso no debe ver cambios que no persistió.
func (f *fakeDocs) get(id string) *entity.Document {
	d, ok := f.byID[id]
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

func (f *fakeDocs) Create(_ context.Context, d *entity.Document) error {
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDocs) Update(_ context.Context, d *entity.Document) error {
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDocs) GetByID(_ context.Context, id string) (*entity.Document, error) {
	return f.get(id), nil
}

func (f *fakeDocs) GetForUpdate(_ context.Context, id string) (*entity.Document, error) {
	return f.get(id), nil
}

func (f *fakeDocs) HasOpenRevision(_ context.Context, codigo string) (bool, error) {
	for _, d := range f.byID {
		if d.Codigo == codigo && !d.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDocs) MaxRevision(_ context.Context, codigo string) (int, error) {
	max := -1
	for _, d := range f.byID {
		if d.Codigo == codigo && d.Revision > max {
			max = d.Revision
		}
	}
	return max, nil
}

func (f *fakeDocs) DeactivateApproved(_ context.Context, codigo, exceptID string) error {
	for _, d := range f.byID {
		if d.Codigo == codigo && d.ID != exceptID && d.Status == entity.DocStatusApproved {
			d.IsActive = false
			f.deactivated = append(f.deactivated, d.ID)
		}
	}
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeDocs) AddNameChange(_ context.Context, c *entity.DocumentNameChange) error {
	f.nameChanges = append(f.nameChanges, c)
	return nil
}

func (f *fakeDocs) AddDeleted(_ context.Context, d *entity.DeletedDocument) error {
	f.deleted = append(f.deleted, d)
	return nil
}

func (f *fakeDocs) AddAccess(context.Context, *entity.DocumentAccess) error {
	f.accesses++
	return nil
}

func (f *fakeDocs) SearchApprovedText(_ context.Context, terms []string, _ int) ([]*entity.Document, error) {
	f.searched = append(f.searched, terms)
	var out []*entity.Document
	for _, d := range f.byID {
		if d.Status == entity.DocStatusApproved && d.TextContent != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeCategories struct {
	repository.CategoryRepository
	byID map[string]*entity.Category
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*entity.Category, error) {
	return f.byID[id], nil
}

type fakeConverter struct {
	err   error
	calls int
}

func (c *fakeConverter) ToPDF(context.Context, string) (string, func(), error) {
	c.calls++
	if c.err != nil {
		return "", nil, c.err
	}
	return "/tmp/conv/doc.pdf", func() {}, nil
}

type fakeExtractor struct {
	text  string
	err   error
	names []string
}

func (e *fakeExtractor) Extract(name string, _ []byte, maxChars int) (string, error) {
	e.names = append(e.names, name)
	if e.err != nil {
		return "", e.err
	}
	r := []rune(e.text)
	if maxChars > 0 && len(r) > maxChars {
		r = r[:maxChars]
	}
	return string(r), nil
}

type fakeEvents struct {
	events []ports.DocumentStatusChanged
}

func (p *fakeEvents) PublishDocumentStatusChanged(_ context.Context, ev ports.DocumentStatusChanged) error {
	p.events = append(p.events, ev)
	return nil
}

// ── usuarios y notificaciones ────────────────────────────────────────────────

type fakeUsers struct {
	repository.UserRepository
	byID   map[string]*entity.User
	perms  map[string][]string
	direct map[string][]string
	groups map[string][]string
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{
		byID:   map[string]*entity.User{},
		perms:  map[string][]string{},
		direct: map[string][]string{},
		groups: map[string][]string{},
	}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) ListActiveIDs(context.Context) ([]string, error) {
	var out []string
	for id, u := range f.byID {
		if u.IsActive {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUsers) ListIDsWithPermission(_ context.Context, perm string) ([]string, error) {
	var out []string
	for id, perms := range f.perms {
		for _, p := range perms {
			if p == perm {
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUsers) GroupIDs(_ context.Context, id string) ([]string, error) {
	return f.groups[id], nil
}

func (f *fakeUsers) DirectPermissions(_ context.Context, id string) ([]string, error) {
	return f.direct[id], nil
}

func (f *fakeUsers) SetDirectPermissions(_ context.Context, id string, perms []string) error {
	f.direct[id] = perms
	return nil
}

type fakeNotifs struct {
	repository.NotificationRepository
	created []*entity.Notification
}

func (f *fakeNotifs) CreateIfAbsent(_ context.Context, n *entity.Notification) (bool, error) {
	for _, c := range f.created {
		if c.RecipientID == n.RecipientID && *c.DocumentID == *n.DocumentID && c.Message == n.Message {
			return false, nil
		}
	}
	f.created = append(f.created, n)
	return true, nil
}

func (f *fakeNotifs) recipients() []string {
	out := make([]string, 0, len(f.created))
	for _, n := range f.created {
		out = append(out, n.RecipientID)
	}
	return out
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

// ── formularios ──────────────────────────────────────────────────────────────

type fakeForms struct {
	repository.FormRepository
	byID      map[string]*entity.Form
	responses map[string][]*entity.FormResponse
	states    map[string]*entity.FormUserState
	collabs   map[string][]entity.FormCollaborator
}

func newFakeForms(forms ...*entity.Form) *fakeForms {
	f := &fakeForms{
		byID:      map[string]*entity.Form{},
		responses: map[string][]*entity.FormResponse{},
		states:    map[string]*entity.FormUserState{},
		collabs:   map[string][]entity.FormCollaborator{},
	}
	for _, fm := range forms {
		f.byID[fm.ID] = fm
	}
	return f
}

func (f *fakeForms) Create(_ context.Context, fm *entity.Form) error {
	f.byID[fm.ID] = fm
	return nil
}

func (f *fakeForms) Update(_ context.Context, fm *entity.Form) error {
	f.byID[fm.ID] = fm
	return nil
}

func (f *fakeForms) GetByID(_ context.Context, id string) (*entity.Form, error) {
	fm, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *fm
	cp.Fields = append([]entity.FormField(nil), fm.Fields...)
	cp.ResponseCount = len(f.responses[id])
	return &cp, nil
}

func (f *fakeForms) ListHomeCandidates(context.Context) ([]*entity.Form, error) {
	var out []*entity.Form
	for _, fm := range f.byID {
		if fm.ShowOnHome {
			out = append(out, fm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeForms) BumpVersion(_ context.Context, id string) (int, error) {
	f.byID[id].Version++
	return f.byID[id].Version, nil
}

func (f *fakeForms) AddField(_ context.Context, field *entity.FormField) error {
	fm := f.byID[field.FormID]
	fm.Fields = append(fm.Fields, *field)
	return nil
}

func (f *fakeForms) UpdateField(_ context.Context, field *entity.FormField) error {
	fm := f.byID[field.FormID]
	for i := range fm.Fields {
		if fm.Fields[i].ID == field.ID {
			fm.Fields[i] = *field
		}
	}
	return nil
}

func (f *fakeForms) GetCollaborator(_ context.Context, formID, userID string) (*entity.FormCollaborator, error) {
	for _, c := range f.collabs[formID] {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeForms) SetCollaborators(_ context.Context, formID string, c []entity.FormCollaborator) error {
	f.collabs[formID] = c
	return nil
}

func (f *fakeForms) CountResponses(_ context.Context, formID string) (int, error) {
	return len(f.responses[formID]), nil
}

func (f *fakeForms) CreateResponse(_ context.Context, r *entity.FormResponse) error {
	f.responses[r.FormID] = append(f.responses[r.FormID], r)
	return nil
}

func (f *fakeForms) ListResponses(_ context.Context, formID string, limit, offset int) ([]*entity.FormResponse, int, error) {
	all := f.responses[formID]
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f *fakeForms) GetUserState(_ context.Context, formID, userID string) (*entity.FormUserState, error) {
	s, ok := f.states[formID+"/"+userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeForms) UpsertUserState(_ context.Context, s *entity.FormUserState) error {
	cp := *s
	f.states[s.FormID+"/"+s.UserID] = &cp
	return nil
}

type fakeReports struct {
	formCalls int
	epiTitles []string
	epiCount  int
}

func (r *fakeReports) FormResponses(_ *entity.Form, responses []*entity.FormResponse) ([]byte, error) {
	r.formCalls++
	return []byte("%PDF form"), nil
}

func (r *fakeReports) EPIDeliveries(title string, deliveries []*entity.EPIDelivery) ([]byte, error) {
	r.epiTitles = append(r.epiTitles, title)
	r.epiCount = len(deliveries)
	return []byte("%PDF epi"), nil
}

// ── IA ───────────────────────────────────────────────────────────────────────

type fakeChats struct {
	repository.ChatRepository
	chats    map[string]*entity.Chat
	messages map[string][]*entity.ChatMessage
	usage    []*entity.APIUsageLog
	summary  []*entity.APIUsageSummary
	lastUser string
}

func newFakeChats(chats ...*entity.Chat) *fakeChats {
	f := &fakeChats{chats: map[string]*entity.Chat{}, messages: map[string][]*entity.ChatMessage{}}
	for _, c := range chats {
		f.chats[c.ID] = c
	}
	return f
}

func (f *fakeChats) CreateChat(_ context.Context, c *entity.Chat) error {
	f.chats[c.ID] = c
	return nil
}

func (f *fakeChats) GetChat(_ context.Context, id string) (*entity.Chat, error) {
	c, ok := f.chats[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChats) UpdateChat(_ context.Context, c *entity.Chat) error {
	cp := *c
	f.chats[c.ID] = &cp
	return nil
}

func (f *fakeChats) AddMessage(_ context.Context, m *entity.ChatMessage) error {
	f.messages[m.ChatID] = append(f.messages[m.ChatID], m)
	return nil
}

func (f *fakeChats) ListMessages(_ context.Context, chatID string, limit int) ([]*entity.ChatMessage, error) {
	all := f.messages[chatID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]*entity.ChatMessage(nil), all...), nil
}

func (f *fakeChats) LogUsage(_ context.Context, l *entity.APIUsageLog) error {
	f.usage = append(f.usage, l)
	return nil
}

func (f *fakeChats) UsageSummary(_ context.Context, userID string, _, _ time.Time) ([]*entity.APIUsageSummary, error) {
	f.lastUser = userID
	return f.summary, nil
}

type fakeLLM struct {
	result *ports.LLMResult
	err    error
	reqs   []ports.LLMRequest
}

func (l *fakeLLM) Chat(_ context.Context, req ports.LLMRequest) (*ports.LLMResult, error) {
	l.reqs = append(l.reqs, req)
	if l.err != nil {
		return nil, l.err
	}
	return l.result, nil
}

// ── RH / EPI ─────────────────────────────────────────────────────────────────

type fakeEPIRepo struct {
	repository.EPIRepository
	byKey     map[string]*entity.EPIDelivery
	writeOffs map[string]string
	listed    []*entity.EPIDelivery
	lastF     entity.EPIFilter
}

func newFakeEPIRepo() *fakeEPIRepo {
	return &fakeEPIRepo{byKey: map[string]*entity.EPIDelivery{}, writeOffs: map[string]string{}}
}

func epiKey(unit, contract, epi, lot string, at time.Time) string {
	return unit + "|" + contract + "|" + epi + "|" + lot + "|" + at.Format("2006-01-02")
}

func (f *fakeEPIRepo) Upsert(_ context.Context, d *entity.EPIDelivery) (bool, error) {
	k := epiKey(d.Unit, d.Contract, d.EPI, d.Lot, d.DeliveredAt)
	_, exists := f.byKey[k]
	cp := *d
	f.byKey[k] = &cp
	return !exists, nil
}

func (f *fakeEPIRepo) List(_ context.Context, flt entity.EPIFilter) ([]*entity.EPIDelivery, int, error) {
	f.lastF = flt
	return f.listed, len(f.listed), nil
}

func (f *fakeEPIRepo) WriteOffByKey(_ context.Context, unit, contract, epi, lot string, deliveredAt time.Time, sequence string, _ time.Time) (bool, error) {
	k := epiKey(unit, contract, epi, lot, deliveredAt)
	d, ok := f.byKey[k]
	if !ok || d.Status != entity.EPIStatusPending {
		return false, nil
	}
	d.Status = entity.EPIStatusWrittenOff
	f.writeOffs[k] = sequence
	return true, nil
}

type fakeHR struct {
	rows      []map[string]any
	contracts map[string]ports.ContractInfo
	calls     map[string]int
	err       error
}

func (h *fakeHR) EPIDeliveries(context.Context) ([]map[string]any, error) {
	if h.err != nil {
		return nil, h.err
	}
	return h.rows, nil
}

func (h *fakeHR) Contract(_ context.Context, contract string) (ports.ContractInfo, error) {
	if h.calls == nil {
		h.calls = map[string]int{}
	}
	h.calls[contract]++
	return h.contracts[contract], nil
}

type metricCall struct {
	job                                string
	received, created, updated, errors int
}

type fakeMetrics struct {
	syncs   []metricCall
	windows map[string]int
}

func (m *fakeMetrics) ObserveSync(job string, received, created, updated, errs int) {
	m.syncs = append(m.syncs, metricCall{job, received, created, updated, errs})
}

func (m *fakeMetrics) ObserveWindow(job string) {
	if m.windows == nil {
		m.windows = map[string]int{}
	}
	m.windows[job]++
}

// ── SQL hub ──────────────────────────────────────────────────────────────────

type fakeSQLRepo struct {
	repository.SQLHubRepository
	conns   map[string]*entity.SQLConnection
	queries map[string]*entity.SavedQuery
	cache   map[string]*entity.QueryCacheEntry
	puts    int
}

func newFakeSQLRepo() *fakeSQLRepo {
	return &fakeSQLRepo{
		conns:   map[string]*entity.SQLConnection{},
		queries: map[string]*entity.SavedQuery{},
		cache:   map[string]*entity.QueryCacheEntry{},
	}
}

func (f *fakeSQLRepo) CreateConnection(_ context.Context, c *entity.SQLConnection) error {
	f.conns[c.ID] = c
	return nil
}

func (f *fakeSQLRepo) UpdateConnection(_ context.Context, c *entity.SQLConnection) error {
	f.conns[c.ID] = c
	return nil
}

func (f *fakeSQLRepo) GetConnection(_ context.Context, id string) (*entity.SQLConnection, error) {
	c, ok := f.conns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeSQLRepo) CreateQuery(_ context.Context, q *entity.SavedQuery) error {
	f.queries[q.ID] = q
	return nil
}

func (f *fakeSQLRepo) GetQuery(_ context.Context, id string) (*entity.SavedQuery, error) {
	return f.queries[id], nil
}

func (f *fakeSQLRepo) GetCache(_ context.Context, queryID, hash string, now time.Time) (*entity.QueryCacheEntry, error) {
	e, ok := f.cache[queryID+"/"+hash]
	if !ok || !e.ExpiresAt.After(now) {
		return nil, nil
	}
	return e, nil
}

func (f *fakeSQLRepo) PutCache(_ context.Context, e *entity.QueryCacheEntry) error {
	f.puts++
	f.cache[e.QueryID+"/"+e.ParamsHash] = e
	return nil
}

type fakeExecutor struct {
	page      *ports.SQLPage
	err       error
	queries   []ports.SQLRequest
	passwords []string
}

func (e *fakeExecutor) Ping(_ context.Context, _ *entity.SQLConnection, password string) error {
	e.passwords = append(e.passwords, password)
	return e.err
}

func (e *fakeExecutor) Query(_ context.Context, _ *entity.SQLConnection, password string, req ports.SQLRequest) (*ports.SQLPage, error) {
	e.passwords = append(e.passwords, password)
	e.queries = append(e.queries, req)
	if e.err != nil {
		return nil, e.err
	}
	return e.page, nil
}

func (e *fakeExecutor) Distinct(context.Context, *entity.SQLConnection, string, string, string, string, int) ([]string, error) {
	return []string{"A", "B"}, e.err
}

// ── AltForce ─────────────────────────────────────────────────────────────────

type window struct {
	resource   string
	start, end time.Time
}

type fakeAFClient struct {
	perWindow []altforce.Record
	all       []altforce.Record
	failAt    int // ventana (1-based) que falla; 0 = ninguna
	windows   []window
}

func (c *fakeAFClient) FetchWindow(_ context.Context, resource string, start, end time.Time) ([]altforce.Record, error) {
	c.windows = append(c.windows, window{resource, start, end})
	if c.failAt > 0 && len(c.windows) == c.failAt {
		return nil, errBoom
	}
	return c.perWindow, nil
}

func (c *fakeAFClient) FetchAll(context.Context, string) ([]altforce.Record, error) {
	return c.all, nil
}

type fakeAFRepo struct {
	seen      map[string]bool
	orders    int
	customers int
}

func newFakeAFRepo() *fakeAFRepo { return &fakeAFRepo{seen: map[string]bool{}} }

func (r *fakeAFRepo) mark(key string) bool {
	created := !r.seen[key]
	r.seen[key] = true
	return created
}

func (r *fakeAFRepo) UpsertOrder(_ context.Context, o *entity.AFOrder) (bool, error) {
	r.orders++
	return r.mark("order/" + o.AltforceID), nil
}

func (r *fakeAFRepo) UpsertBudget(_ context.Context, b *entity.AFBudget) (bool, error) {
	return r.mark("budget/" + b.AltforceID), nil
}

func (r *fakeAFRepo) UpsertLead(_ context.Context, l *entity.AFLead) (bool, error) {
	return r.mark("lead/" + l.AltforceID), nil
}

func (r *fakeAFRepo) UpsertCustomer(_ context.Context, c *entity.AFCustomer) (bool, error) {
	r.customers++
	return r.mark("customer/" + c.AltforceID), nil
}
