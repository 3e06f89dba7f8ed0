package email

const subjectOrphanedVisitsFmt = "%d visit(s) need a new technician at %s"
