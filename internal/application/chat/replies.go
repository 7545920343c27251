package chat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apporder "github.com/tokoroti/backend/internal/application/order"
	"github.com/tokoroti/backend/internal/domain/conversation"
	"github.com/tokoroti/backend/internal/domain/inventory"
)

// Reply templates. The core always answers one plain-text message per
// inbound message; everything here is presentation on top of the structured
// results, kept in the customer's language.

const (
	replyApology = "Maaf, sistem kami sedang mengalami gangguan. Silakan coba kirim ulang pesan Anda."

	replyResetDone = "Baik, kita mulai dari awal ya. Silakan sebutkan pesanan Anda."

	replyAskNewOrEdit = "Anda masih punya pesanan yang sedang berjalan. Mau membuat pesan baru atau edit pesanan yang ada? (balas \"pesan baru\" atau \"edit\")"

	replyAskEditConfirmDelivery = "Item pesanan sudah dicatat. Mau ubah detail pengiriman juga? (balas \"ya\" untuk mengubah, atau \"tidak\" untuk tetap seperti semula)"

	replyAskEditNewDelivery = "Silakan kirim detail pengiriman yang baru (tanggal, ambil sendiri/diantar, alamat, dan jamnya)."

	replyEditFollowUp = "Ada perubahan lain untuk pesanan ini? (balas perubahan berikutnya, atau \"tidak\" untuk selesai)"

	replyEditDiscarded = "Baik, pesanan Anda tetap seperti semula."

	replyAskEditWhat = "Mau ubah apa dari pesanan Anda? (tambah/ubah jumlah produk, atau hapus produk)"

	replyAskYesNo = "Mohon balas dengan \"ya\" atau \"tidak\"."

	replyEditClosed = "Baik, terima kasih! Pesanan Anda sudah sesuai."
)

var missingFieldPrompts = map[conversation.Field]string{
	conversation.FieldProducts:        "Silakan sebutkan produk yang ingin Anda pesan.",
	conversation.FieldQuantities:      "Berapa jumlah untuk masing-masing produk?",
	conversation.FieldDeliveryDate:    "Untuk tanggal berapa pesanannya? (contoh: 2026-09-01)",
	conversation.FieldFulfillmentType: "Pesanannya mau diambil sendiri atau diantar? (balas \"ambil\" atau \"antar\")",
	conversation.FieldDeliveryAddress: "Ke alamat mana pesanannya diantar?",
	conversation.FieldPickupTime:      "Jam berapa pesanannya diambil/diantar?",
}

func replyAskMissingField(field conversation.Field) string {
	if prompt, ok := missingFieldPrompts[field]; ok {
		return prompt
	}
	return missingFieldPrompts[conversation.FieldProducts]
}

func replyAskOrderSelection(orders []apporder.OrderResponse) string {
	var b strings.Builder
	b.WriteString("Pesanan mana yang mau diubah?\n")
	for idx, o := range orders {
		names := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			names = append(names, fmt.Sprintf("%dx %s", item.Quantity, item.ProductName))
		}
		b.WriteString(fmt.Sprintf("%d. %s — %s (%s)\n", idx+1, strings.Join(names, ", "), formatRupiah(o.Total), o.Status))
	}
	b.WriteString("Balas dengan nomornya.")
	return b.String()
}

func replyClarification(phrases []conversation.AmbiguousPhrase, confirmed []conversation.DraftItem) string {
	var b strings.Builder
	for _, phrase := range phrases {
		b.WriteString(fmt.Sprintf("Untuk \"%s\" kami punya beberapa pilihan:\n", phrase.Phrase))
		for _, candidate := range phrase.Candidates {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", candidate.Name, formatRupiah(candidate.Price)))
		}
	}
	b.WriteString("Mohon balas dengan nama persisnya.")

	if len(confirmed) > 0 {
		b.WriteString("\n\nSudah tercatat sejauh ini:\n")
		for _, item := range confirmed {
			b.WriteString(fmt.Sprintf("- %dx %s\n", item.Quantity, item.Name))
		}
	}
	return b.String()
}

func replyOrderConfirmed(result *apporder.CreateOrderResult) string {
	o := result.Order
	var b strings.Builder
	b.WriteString("Pesanan Anda sudah kami terima!\n")
	for _, item := range o.Items {
		b.WriteString(fmt.Sprintf("- %dx %s = %s\n", item.Quantity, item.ProductName, formatRupiah(item.Amount)))
	}
	b.WriteString(fmt.Sprintf("Subtotal: %s\nPajak: %s\nTotal: %s\n", formatRupiah(o.Subtotal), formatRupiah(o.Tax), formatRupiah(o.Total)))
	if o.FulfillmentType == "delivery" {
		b.WriteString(fmt.Sprintf("Diantar ke %s", o.DeliveryAddress))
	} else {
		b.WriteString("Diambil di toko")
	}
	if o.DeliveryDate != nil {
		b.WriteString(fmt.Sprintf(" pada %s", o.DeliveryDate.Format("2006-01-02")))
	}
	if o.PickupTime != "" {
		b.WriteString(fmt.Sprintf(" jam %s", o.PickupTime))
	}
	b.WriteString(". Terima kasih!")
	return b.String()
}

func replyOrderPending(result *apporder.CreateOrderResult) string {
	var b strings.Builder
	b.WriteString("Mohon maaf, sebagian bahan sedang tidak mencukupi:\n")
	b.WriteString(formatShortages(result.Shortages))
	b.WriteString("Pesanan Anda kami catat dan akan otomatis diproses begitu stok tersedia kembali.")
	return b.String()
}

func formatShortages(shortages []inventory.IngredientRequirement) string {
	var b strings.Builder
	for _, shortage := range shortages {
		b.WriteString(fmt.Sprintf("- %s kurang %s %s\n", shortage.IngredientName, shortage.Shortage.String(), shortage.Unit))
	}
	return b.String()
}

func replyEditProposal(proposal *apporder.EditProposal) string {
	var b strings.Builder
	b.WriteString("Berikut pesanan Anda setelah perubahan:\n")
	for _, item := range proposal.Items {
		b.WriteString(fmt.Sprintf("- %dx %s = %s\n", item.Quantity, item.ProductName, formatRupiah(item.Amount)))
	}
	b.WriteString(fmt.Sprintf("Total baru: %s\n", formatRupiah(proposal.Total)))
	b.WriteString("Konfirmasi perubahan ini? (balas \"ya\" atau \"tidak\")")
	return b.String()
}

func replyEditApplied(o *apporder.OrderResponse) string {
	var b strings.Builder
	b.WriteString("Perubahan pesanan sudah disimpan.\n")
	for _, item := range o.Items {
		b.WriteString(fmt.Sprintf("- %dx %s\n", item.Quantity, item.ProductName))
	}
	b.WriteString(fmt.Sprintf("Total: %s. Terima kasih!", formatRupiah(o.Total)))
	return b.String()
}

func replyOrderAccepted(o apporder.OrderResponse) string {
	return fmt.Sprintf(
		"Kabar baik! Stok sudah tersedia dan pesanan Anda (total %s) sekarang kami proses. Terima kasih sudah menunggu.",
		formatRupiah(o.Total),
	)
}

// formatRupiah renders a decimal amount as Rp with dot thousand separators
func formatRupiah(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	negative := whole < 0
	if negative {
		whole = -whole
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for idx, r := range digits {
		if idx > 0 && (len(digits)-idx)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}
