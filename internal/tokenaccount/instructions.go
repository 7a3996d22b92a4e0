package tokenaccount

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Associated token account program instruction tags.
const (
	ataCreate           byte = 0
	ataCreateIdempotent byte = 1
)

// SPL Token instruction tags (shared by Token-2022).
const (
	tokenCloseAccount       byte = 9
	tokenSyncNative         byte = 17
	tokenInitializeAccount3 byte = 18
)

// NewCreateAssociatedTokenAccountIx builds an instruction to create an ATA.
// The idempotent variant succeeds when the account already exists with the
// same owner and mint; the plain variant fails in that case.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner (read-only)
// 3. mint (read-only)
// 4. system_program
// 5. token_program
func NewCreateAssociatedTokenAccountIx(
	payer solana.PublicKey,
	ata solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	tokenProgram solana.PublicKey,
	idempotent bool,
) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: normalizeTokenProgram(tokenProgram), IsSigner: false, IsWritable: false},
	}

	tag := ataCreate
	if idempotent {
		tag = ataCreateIdempotent
	}
	return solana.NewInstruction(AssociatedTokenProgramID, accounts, []byte{tag})
}

// NewSystemTransferIx builds a SystemProgram transfer instruction.
func NewSystemTransferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// NewCreateTokenAccountIx allocates a token-account-sized account at a fresh
// address. The new account must sign.
func NewCreateTokenAccountIx(funder, account, tokenProgram solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewCreateAccountInstruction(
		lamports,
		TokenAccountSize,
		normalizeTokenProgram(tokenProgram),
		funder,
		account,
	).Build()
}

// NewCreateTokenAccountWithSeedIx allocates a token-account-sized account at
// the address derived from (base, seed, tokenProgram). Only base and funder sign.
func NewCreateTokenAccountWithSeedIx(
	funder solana.PublicKey,
	account solana.PublicKey,
	base solana.PublicKey,
	seed string,
	tokenProgram solana.PublicKey,
	lamports uint64,
) solana.Instruction {
	return system.NewCreateAccountWithSeedInstruction(
		base,
		seed,
		lamports,
		TokenAccountSize,
		normalizeTokenProgram(tokenProgram),
		funder,
		account,
		base,
	).Build()
}

// NewInitializeAccount3Ix builds a Token InitializeAccount3 instruction.
func NewInitializeAccount3Ix(account, mint, owner, tokenProgram solana.PublicKey) solana.Instruction {
	// u8: instruction index (18 = InitializeAccount3)
	// [32]u8: owner
	data := make([]byte, 0, 1+32)
	data = append(data, tokenInitializeAccount3)
	data = append(data, owner.Bytes()...)

	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(normalizeTokenProgram(tokenProgram), accounts, data)
}

// NewTokenSyncNativeIx builds a Token SyncNative instruction.
func NewTokenSyncNativeIx(nativeAccount, tokenProgram solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: nativeAccount, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(normalizeTokenProgram(tokenProgram), accounts, []byte{tokenSyncNative})
}

// NewTokenCloseAccountIx builds a Token CloseAccount instruction.
func NewTokenCloseAccountIx(account, destination, owner, tokenProgram solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(normalizeTokenProgram(tokenProgram), accounts, []byte{tokenCloseAccount})
}
