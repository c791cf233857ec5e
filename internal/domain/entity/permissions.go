package entity

// Codenames de permisos usados por los módulos del portal.
const (
	PermManageUsers         = "usuarios.manage_users"
	PermDelegatePermissions = "usuarios.delegate_permissions"

	PermViewDocuments      = "documentos.view_documentos"
	PermAddDocument        = "documentos.can_add_documento"
	PermActivateDocument   = "documentos.can_active"
	PermViewDocumentAccess = "documentos.view_acessos_documento"
	PermViewRevisions      = "documentos.can_view_revisions"
	PermReplaceDocument    = "documentos.replace_document"
	PermViewInactive       = "documentos.view_documentos_ina"
	PermListPending        = "documentos.list_pending_approvals"
	PermListRejected       = "documentos.list_reproaches"
	PermMonitorDocuments   = "documentos.monitor_documents"
	PermDeleteDocument     = "documentos.delete_documento"
	PermApproveDocument    = "documentos.can_approve"
	PermAnalyzeDocument    = "documentos.can_analyze"
	PermViewEditables      = "documentos.can_view_editables"
	PermAddCategory        = "documentos.add_categoria"
	PermChangeCategory     = "documentos.change_categoria"
	PermDeleteCategory     = "documentos.delete_categoria"

	PermViewBI           = "bi.view_bi"
	PermEditBI           = "bi.edit_bi"
	PermViewBIAccess     = "bi.view_access"
	PermBIPermissionRep  = "bi.permission_report"
	PermRefreshBI        = "bi.refresh_bi"
	PermManageSavedViews = "bi.manage_saved_views"

	PermAnswerForm  = "formularios.pode_responder"
	PermManageForms = "formularios.pode_gerenciar"
	PermListMyForms = "formularios.listar_meus"
	PermCreateForm  = "formularios.criar_formulario"

	PermViewAllAPICosts = "ia.view_all_api_costs"
	PermChat            = "ia.chat_pag"
	PermCostMonitor     = "ia.cost_monitor"
	PermModel25Pro      = "ia.model_2.5_pro"
	PermModel15Pro      = "ia.model_1.5_pro"

	PermViewEPI  = "rh.view_entregaepi"
	PermWriteOff = "rh.baixar_entregaepi"
	PermSyncEPI  = "rh.sync_entregaepi"

	PermRunSync = "altforce_sync.run_sync"

	PermSQLHubManage = "sqlhub.manage"
	PermSQLHubRun    = "sqlhub.run_query"
)

// PermissionCatalog lista todos los permisos conocidos con su descripción.
var PermissionCatalog = []Permission{
	{PermManageUsers, "Gerenciar usuários e grupos"},
	{PermDelegatePermissions, "Delegar permissões que possui"},
	{PermViewDocuments, "Listar Documentos"},
	{PermAddDocument, "Adicionar Documento"},
	{PermActivateDocument, "Ativar/Inativar Documentos"},
	{PermViewDocumentAccess, "Visualizar Acessos"},
	{PermViewRevisions, "Visualizar Revisões"},
	{PermReplaceDocument, "Substituir PDF"},
	{PermViewInactive, "Listar Inativos"},
	{PermListPending, "Ver Pendências"},
	{PermListRejected, "Ver Reprovações"},
	{PermMonitorDocuments, "Monitorar Documentos"},
	{PermDeleteDocument, "Deletar Documento"},
	{PermApproveDocument, "Pode aprovar documentos"},
	{PermAnalyzeDocument, "Pode analisar documentos"},
	{PermViewEditables, "Listar Editáveis"},
	{PermAddCategory, "Adicionar Categoria"},
	{PermChangeCategory, "Editar Categoria"},
	{PermDeleteCategory, "Deletar Categoria"},
	{PermViewBI, "Lista geral BI"},
	{PermEditBI, "Editar BI"},
	{PermViewBIAccess, "Visualizar Acessos"},
	{PermBIPermissionRep, "Relatório de permissões de BI"},
	{PermRefreshBI, "Atualizar BI"},
	{PermManageSavedViews, "Gerenciar visões salvas de BI"},
	{PermAnswerForm, "Pode responder formulário"},
	{PermManageForms, "Pode gerenciar formulário"},
	{PermListMyForms, "Listar meus formulários"},
	{PermCreateForm, "Criar formulário"},
	{PermViewAllAPICosts, "Pode visualizar custos de API de todos os usuários"},
	{PermChat, "Chat IA"},
	{PermCostMonitor, "Custos IA"},
	{PermModel25Pro, "Modelo Gemini 2.5 Pro"},
	{PermModel15Pro, "Modelo Gemini 1.5 Pro"},
	{PermViewEPI, "Listar entregas de EPI"},
	{PermWriteOff, "Baixar/reverter entregas de EPI"},
	{PermSyncEPI, "Sincronizar entregas de EPI"},
	{PermRunSync, "Executar sincronização AltForce"},
	{PermSQLHubManage, "Gerenciar conexões SQL"},
	{PermSQLHubRun, "Executar consultas SQL"},
}

// IsKnownPermission indica si el codename existe en el catálogo.
func IsKnownPermission(codename string) bool {
	for _, p := range PermissionCatalog {
		if p.Codename == codename {
			return true
		}
	}
	return false
}
