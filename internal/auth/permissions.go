package auth

import "github.com/gofiber/fiber/v2"

// AnyVerb in a rule's verb set allows every method, including ones the API never routes.
const AnyVerb = "*"

// Verb sets granted by policy rules.
var (
	// VerbsAny grants every method.
	VerbsAny = []string{AnyVerb}

	// VerbsAll grants every method the API routes.
	VerbsAll = []string{
		fiber.MethodGet,
		fiber.MethodHead,
		fiber.MethodPost,
		fiber.MethodPut,
		fiber.MethodPatch,
		fiber.MethodDelete,
	}

	// VerbsRead grants listing and reading.
	VerbsRead = []string{fiber.MethodGet, fiber.MethodHead}

	// VerbsReadUpdate grants reading and the collection level update.
	VerbsReadUpdate = []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodPut}

	// VerbsSelf grants an operator reading its own account and uploading its avatar.
	VerbsSelf = []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodPost}
)
