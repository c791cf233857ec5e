package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/auth"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/pkg/jwt"
)

// RouterDeps dependencias para registrar rutas. Un caso de uso nil deja su grupo sin registrar.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	DocumentUC     *usecase.DocumentUseCase
	NotificationUC *usecase.NotificationUseCase
	BIUC           *usecase.BIUseCase
	FormUC         *usecase.FormUseCase
	AIUC           *usecase.AIUseCase
	SyncUC         *usecase.AltForceSyncUseCase
	EPIUC          *usecase.EPIUseCase
	SQLHubUC       *usecase.SQLHubUseCase
	Integrations   *usecase.IntegrationService
	JWTSecret      string
}

// Router registra todas las rutas bajo /api.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	authRequired := AuthMiddleware(deps.JWTSecret)
	perm := RequirePermission

	if deps.AuthUC != nil {
		h := NewAuthHandler(deps.AuthUC)
		api.Post("/auth/login", h.Login)
		api.Get("/auth/me", authRequired, h.Me)
	}

	// formularios públicos: token opcional
	if deps.FormUC != nil {
		h := NewFormHandler(deps.FormUC)
		pub := api.Group("/public/forms", OptionalAuth(deps.JWTSecret))
		pub.Get("/:id", h.GetForAnswer)
		pub.Post("/:id/responses", h.Submit)
	}

	protected := api.Group("", authRequired)

	if deps.Integrations != nil {
		h := NewSyncHandler(deps.SyncUC, deps.Integrations)
		protected.Get("/integrations", RequireRole(jwt.RoleSuperuser, jwt.RoleStaff), h.Integrations)
	}

	if deps.UserUC != nil {
		h := NewUserHandler(deps.UserUC)
		manage := perm(entity.PermManageUsers)
		protected.Get("/permissions", perm(entity.PermManageUsers, entity.PermDelegatePermissions), h.Permissions)

		users := protected.Group("/users")
		users.Post("/", manage, h.Create)
		users.Get("/", perm(entity.PermManageUsers, entity.PermDelegatePermissions), h.List)
		users.Get("/:id", manage, h.GetByID)
		users.Put("/:id", manage, h.Update)
		users.Patch("/:id/active", manage, h.SetActive)
		users.Put("/:id/password", manage, h.SetPassword)
		users.Get("/:id/permissions", perm(entity.PermManageUsers, entity.PermDelegatePermissions), h.DirectPermissions)
		users.Put("/:id/permissions", perm(entity.PermManageUsers, entity.PermDelegatePermissions), h.SetDirectPermissions)
		users.Post("/:id/groups/:groupId", manage, h.AddToGroup)
		users.Delete("/:id/groups/:groupId", manage, h.RemoveFromGroup)

		groups := protected.Group("/groups", manage)
		groups.Post("/", h.CreateGroup)
		groups.Get("/", h.ListGroups)
		groups.Put("/:id", h.RenameGroup)
		groups.Delete("/:id", h.DeleteGroup)
		groups.Put("/:id/permissions", h.SetGroupPermissions)
		groups.Get("/:id/members", h.GroupMembers)
	}

	if deps.DocumentUC != nil {
		h := NewDocumentHandler(deps.DocumentUC)
		docs := protected.Group("/documents")
		// rutas estáticas antes de /:id
		docs.Get("/", h.ListApproved)
		docs.Post("/", perm(entity.PermAddDocument), h.Create)
		docs.Get("/pending", h.ListPending)
		docs.Get("/inactive", perm(entity.PermViewInactive), h.ListInactive)
		docs.Get("/rejected", perm(entity.PermListRejected), h.ListRejected)
		docs.Get("/monitor", perm(entity.PermMonitorDocuments), h.Monitor)
		docs.Get("/codigo/:codigo/revisions", perm(entity.PermViewRevisions), h.ListRevisions)
		docs.Get("/:id", h.Get)
		docs.Delete("/:id", perm(entity.PermDeleteDocument), h.Delete)
		docs.Post("/:id/revisions", perm(entity.PermAddDocument), h.NewRevision)
		docs.Post("/:id/transition", h.Transition)
		docs.Post("/:id/generate-pdf", perm(entity.PermReplaceDocument), h.GeneratePDF)
		docs.Get("/:id/pdf", h.DownloadPDF)
		docs.Put("/:id/pdf", perm(entity.PermReplaceDocument), h.ReplacePDF)
		docs.Get("/:id/editable", perm(entity.PermViewEditables), h.DownloadEditable)
		docs.Patch("/:id/name", perm(entity.PermAddDocument, entity.PermAnalyzeDocument), h.Rename)
		docs.Patch("/:id/active", perm(entity.PermActivateDocument), h.SetActive)
		docs.Get("/:id/accesses", perm(entity.PermViewDocumentAccess), h.ListAccesses)
		docs.Get("/:id/names", h.NameHistory)

		cats := protected.Group("/categories")
		cats.Get("/", h.ListCategories)
		cats.Post("/", perm(entity.PermAddCategory), h.CreateCategory)
		cats.Put("/:id", perm(entity.PermChangeCategory), h.UpdateCategory)
		cats.Delete("/:id", perm(entity.PermDeleteCategory), h.DeleteCategory)
	}

	if deps.NotificationUC != nil {
		h := NewNotificationHandler(deps.NotificationUC)
		n := protected.Group("/notifications")
		n.Get("/", h.ListUnread)
		n.Get("/count", h.CountUnread)
		n.Post("/read-all", h.MarkAllRead)
		n.Post("/:id/read", h.MarkRead)
	}

	if deps.BIUC != nil {
		h := NewBIHandler(deps.BIUC)
		bi := protected.Group("/bi")
		bi.Get("/admin/reports", perm(entity.PermEditBI, entity.PermBIPermissionRep), h.ListAll)
		bi.Get("/reports", perm(entity.PermViewBI), h.ListForUser)
		bi.Post("/reports", perm(entity.PermEditBI), h.CreateReport)
		bi.Put("/reports/:id", perm(entity.PermEditBI), h.UpdateReport)
		bi.Delete("/reports/:id", perm(entity.PermEditBI), h.DeleteReport)
		bi.Get("/reports/:id/embed", perm(entity.PermViewBI), h.Embed)
		bi.Get("/reports/:id/refresh", perm(entity.PermViewBI), h.LastRefresh)
		bi.Post("/reports/:id/refresh", perm(entity.PermRefreshBI), h.TriggerRefresh)
		bi.Get("/reports/:id/accesses", perm(entity.PermViewBIAccess), h.ListAccesses)
		bi.Get("/reports/:id/views", perm(entity.PermViewBI), h.ListViews)
		bi.Post("/reports/:id/views", perm(entity.PermViewBI), h.CreateView)
		bi.Get("/views/shared/:token", perm(entity.PermViewBI), h.SharedView)
		bi.Delete("/views/:viewId", h.DeleteView)
		bi.Post("/views/:viewId/default", h.SetDefaultView)
		bi.Post("/views/:viewId/share", h.ShareView)
		bi.Delete("/views/:viewId/share", h.UnshareView)
		bi.Get("/views/:viewId/qr", h.ShareQR)
	}

	if deps.FormUC != nil {
		h := NewFormHandler(deps.FormUC)
		forms := protected.Group("/forms")
		forms.Get("/home", h.HomeFeed)
		forms.Get("/", h.ListMine)
		forms.Post("/", perm(entity.PermCreateForm), h.Create)
		forms.Get("/:id", h.Get)
		forms.Put("/:id", h.Update)
		forms.Delete("/:id", h.Delete)
		forms.Post("/:id/dismiss", h.Dismiss)
		forms.Post("/:id/fields", h.AddField)
		forms.Put("/:id/fields/order", h.ReorderFields)
		forms.Put("/:id/fields/:fieldId", h.UpdateField)
		forms.Delete("/:id/fields/:fieldId", h.DeleteField)
		forms.Put("/:id/collaborators", h.SetCollaborators)
		forms.Get("/:id/responses", h.ListResponses)
		forms.Get("/:id/export/csv", h.ExportCSV)
		forms.Get("/:id/export/files", h.ExportFiles)
		forms.Get("/:id/export/pdf", h.ExportPDF)
	}

	if deps.AIUC != nil {
		h := NewChatHandler(deps.AIUC)
		ai := protected.Group("/ai", perm(entity.PermChat, entity.PermCostMonitor))
		ai.Get("/models", h.Models)
		ai.Get("/usage", perm(entity.PermCostMonitor, entity.PermViewAllAPICosts), h.Usage)
		chats := ai.Group("/chats", perm(entity.PermChat))
		chats.Get("/", h.ListChats)
		chats.Post("/", h.CreateChat)
		chats.Patch("/:id", h.RenameChat)
		chats.Delete("/:id", h.DeleteChat)
		chats.Get("/:id/messages", h.Messages)
		chats.Post("/:id/messages", h.SendMessage)
	}

	if deps.SyncUC != nil {
		h := NewSyncHandler(deps.SyncUC, deps.Integrations)
		protected.Post("/altforce/sync", perm(entity.PermRunSync), h.Run)
	}

	if deps.EPIUC != nil {
		h := NewEPIHandler(deps.EPIUC)
		epi := protected.Group("/epi")
		epi.Get("/deliveries", perm(entity.PermViewEPI), h.List)
		epi.Get("/deliveries/report", perm(entity.PermViewEPI), h.PendingReport)
		epi.Post("/deliveries/write-off", perm(entity.PermWriteOff), h.WriteOff)
		epi.Post("/deliveries/revert", perm(entity.PermWriteOff), h.Revert)
		epi.Post("/deliveries/import", perm(entity.PermWriteOff), h.Import)
		epi.Post("/sync", perm(entity.PermSyncEPI), h.Sync)
	}

	if deps.SQLHubUC != nil {
		h := NewSQLHubHandler(deps.SQLHubUC)
		hub := protected.Group("/sqlhub")
		manage := perm(entity.PermSQLHubManage)
		run := perm(entity.PermSQLHubRun, entity.PermSQLHubManage)
		hub.Get("/connections", manage, h.ListConnections)
		hub.Post("/connections", manage, h.CreateConnection)
		hub.Put("/connections/:id", manage, h.UpdateConnection)
		hub.Delete("/connections/:id", manage, h.DeleteConnection)
		hub.Post("/connections/:id/test", manage, h.TestConnection)
		hub.Get("/queries", run, h.ListQueries)
		hub.Post("/queries", manage, h.CreateQuery)
		hub.Put("/queries/:id", manage, h.UpdateQuery)
		hub.Delete("/queries/:id", manage, h.DeleteQuery)
		hub.Get("/queries/:id/distinct", run, h.Distinct)
		hub.Post("/run", run, h.Run)
		hub.Post("/export", run, h.ExportCSV)
	}
}
