package classifier

import (
	"fmt"
	"strings"

	"github.com/civic-desk/complaint-service/internal/domain"
)

const promptTemplate = `You are a Tamil municipal complaint analyzer. Analyze this message which could be in Tamil script or Tamil words written in English characters (transliteration). Respond ONLY with valid JSON.

Message: %[1]q

Categories available: %[2]s

The message could be:
- Pure Tamil script: எங்கள் பகுதியில் குப்பை எடுக்கப்படவில்லை
- Tamil in English: engal paguthiyil kuppai edukkappada villai
- Mixed: garbage edukkappa villai
- English: garbage not collected

Common Tamil words in English:
- kuppai = garbage/waste
- thanneer = water
- theruvil = in street
- paguthi/area = area
- edukkappa = collected
- villai = not
- prachana = problem
- theru vilakku = street light
- sadai = road
- ward = வார்டு

Location indicators:
- ward number: ward 1, ward 2, வார்டு 1
- area names: anna nagar, t nagar, etc
- street names: 1st street, 2nd cross, etc

Analyze if this is a valid municipal complaint about:
- Water supply issues (thanneer prachana)
- Waste/garbage collection (kuppai collection)
- Street lights (theru vilakku)
- Road problems (sadai prachana)
- Traffic issues (traffic problem)
- Public health (health prachana)
- Other municipal services

For the message %[1]q, determine:
1. Is it a valid municipal complaint requiring action?
2. What category does it belong to?
3. Does it contain location information (ward number, area name, street)?
4. Should a ticket be created?

Rules:
- createTicket = true ONLY for clear, actionable municipal issues WITH location information
- needsLocation = true if complaint is valid but missing location/ward number
- createTicket = false for greetings, questions, unclear messages, or missing location
- Be conservative: when in doubt, set createTicket = false

Response format (JSON only, no markdown, no explanations):
{
  "isValidComplaint": true,
  "category": "Waste Management",
  "hasLocation": false,
  "needsLocation": true,
  "createTicket": false,
  "confidence": 0.9,
  "translation": "Garbage is not being collected in our area",
  "reason": "Valid complaint but needs location information",
  "response": "உங்கள் புகார் புரிந்துகொள்ளப்பட்டது. தயவுசெய்து உங்கள் வார்டு எண் அல்லது பகுதியின் பெயரைத் தெரிவிக்கவும்."
}`

// BuildPrompt renders the analysis instructions for one message.
func BuildPrompt(message string) string {
	return fmt.Sprintf(promptTemplate, message, strings.Join(domain.CategoryNames(), ", "))
}
