package yahoo

import "dividend-backend/lib/telemetry"

var tracer = telemetry.Tracer("dividend.lib.scrapers.yahoo")
