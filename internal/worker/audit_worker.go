package worker

import (
	"github.com/spec-kit/course-auth-service/internal/service"
)

// StartAuditWorker subscribes the audit trail to auth events.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
