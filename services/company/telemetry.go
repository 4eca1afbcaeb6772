package company

import "dividend-backend/lib/telemetry"

var tracer = telemetry.Tracer("dividend.services.company")
