package scanning

// receiptPrompt is the shared instruction sent to every provider with the image
const receiptPrompt = `Analyze this receipt image and extract the following information in JSON format:
{
  "storeName": "name of the store/restaurant",
  "date": "YYYY-MM-DD format if visible, otherwise null",
  "items": [
    { "name": "item name", "price": "price as number (e.g., 12.99)" }
  ]
}

Rules:
- Extract all line items with their prices
- Use the exact item names as shown on the receipt
- Prices should be numbers only, no currency symbols
- If date is not visible, set to null
- If store name is not clear, make your best guess
- Only return the JSON, no other text`

// Prompt returns the instruction used for receipt extraction
func Prompt() string {
	return receiptPrompt
}
